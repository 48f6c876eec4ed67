package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLIArgs are the command-line arguments controlling one invocation: either
// the console server or a one-shot batch run.
type CLIArgs struct {
	// Mode is "serve" (console API) or "run" (one-shot batch).
	Mode string

	// ListenAddr is the console listen address in serve mode.
	ListenAddr string

	// Input is the CSV batch path in run mode.
	Input string

	// Username and Password are the portal credentials in run mode.
	// Password may instead arrive via the ABCBIZ_PASSWORD environment
	// variable; that fallback is the caller's concern, not ParseArgs'.
	Username string
	Password string

	// Headed disables headless browsing for debugging a run.
	Headed bool

	// Out overrides the report output directory.
	Out string

	// Storage overrides the storage root (run history, logs, reports).
	Storage string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not read
// os.Args or the environment.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("abcbizreport", flag.ContinueOnError)
	var (
		mode     = fs.String("mode", "serve", "Mode: serve|run")
		listen   = fs.String("listen", ":8080", "Console listen address (serve mode)")
		input    = fs.String("input", "", "CSV batch file of service_number,last_name rows (run mode)")
		username = fs.String("username", "", "Portal username (run mode)")
		password = fs.String("password", "", "Portal password (run mode; prefer ABCBIZ_PASSWORD)")
		headed   = fs.Bool("headed", false, "Show the browser window instead of running headless")
		out      = fs.String("out", "", "Report output directory (default <storage>/Daily_Report)")
		storage  = fs.String("storage", "", "Storage root for run history, logs and reports")
	)

	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := strings.TrimSpace(*mode)
	switch m {
	case "serve":
	case "run":
		if strings.TrimSpace(*input) == "" {
			return nil, fmt.Errorf("missing required -input argument in run mode")
		}
		if strings.TrimSpace(*username) == "" {
			return nil, fmt.Errorf("missing required -username argument in run mode")
		}
	default:
		return nil, fmt.Errorf("unknown -mode %q (want serve or run)", m)
	}

	return &CLIArgs{
		Mode:       m,
		ListenAddr: *listen,
		Input:      *input,
		Username:   *username,
		Password:   *password,
		Headed:     *headed,
		Out:        *out,
		Storage:    *storage,
		RawArgs:    args,
	}, nil
}
