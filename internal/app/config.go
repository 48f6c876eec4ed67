package app

import (
	"path/filepath"

	"abcbizreport/internal/browser"
	"abcbizreport/internal/portal"
	"abcbizreport/internal/report"
)

// Config contains the runtime configuration shared by the orchestrator and
// the console server.
type Config struct {
	// StorageRoot is the base path for run history, reports and logs.
	StorageRoot string

	// ReportDir receives the daily report files. Empty derives
	// StorageRoot/Daily_Report.
	ReportDir string

	// LogDir receives the date-named operational log files. Empty derives
	// StorageRoot/log.
	LogDir string

	// ReportPrefix names report files; empty uses the legacy prefix.
	ReportPrefix string

	// Browser configuration
	BrowserCfg browser.Config

	// Portal configuration (login URL, selectors, settle delays)
	PortalCfg portal.Config
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StorageRoot:  "~/.config/abcbizreport",
		ReportPrefix: report.DefaultPrefix,
		BrowserCfg:   browser.DefaultConfig(),
		PortalCfg:    portal.DefaultConfig(),
	}
}

// ReportPath returns the configured report directory.
func (c *Config) ReportPath() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return filepath.Join(c.StorageRoot, report.DefaultDir)
}

// LogPath returns the configured operational log directory.
func (c *Config) LogPath() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return filepath.Join(c.StorageRoot, "log")
}
