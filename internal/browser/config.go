package browser

import "time"

// Backend names a registered Page constructor.
type Backend string

const (
	BackendChromedp Backend = "chromedp"
)

// DefaultUserAgent is sent when Config.UserAgent is empty. A desktop Chrome
// string keeps the portal's bot heuristics quiet.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Config is the minimal set of options required for constructing a Page.
type Config struct {
	Backend Backend

	// Headless controls whether the browser renders a visible window.
	Headless bool

	// Window size in pixels. Zero values fall back to 1920x1080.
	Width  int
	Height int

	// UserAgent overrides the browser user agent when non-empty.
	UserAgent string

	// ExecPath points at a browser executable. Empty lets the backend find
	// one on its own.
	ExecPath string

	// NavTimeout bounds a single navigation, StepTimeout every other
	// page operation. Zero values fall back to 60s / 30s.
	NavTimeout  time.Duration
	StepTimeout time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendChromedp,
		Headless:    true,
		Width:       1920,
		Height:      1080,
		NavTimeout:  60 * time.Second,
		StepTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendChromedp
	}
	if c.Width <= 0 {
		c.Width = 1920
	}
	if c.Height <= 0 {
		c.Height = 1080
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 30 * time.Second
	}
	return c
}
