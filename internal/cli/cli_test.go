package cli_test

import (
	"testing"

	"abcbizreport/internal/cli"
)

func TestParseArgsServeDefaults(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if args.Mode != "serve" {
		t.Errorf("Mode = %q, want serve", args.Mode)
	}
	if args.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", args.ListenAddr)
	}
	if args.Headed {
		t.Error("Headed must default to false")
	}
}

func TestParseArgsRunMode(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{
		"-mode", "run",
		"-input", "batch.csv",
		"-username", "ops@example.com",
		"-password", "hunter22",
		"-headed",
		"-out", "/tmp/reports",
		"-storage", "/tmp/storage",
	})
	if err != nil {
		t.Fatal(err)
	}
	if args.Mode != "run" || args.Input != "batch.csv" || args.Username != "ops@example.com" {
		t.Errorf("args = %+v", args)
	}
	if args.Password != "hunter22" || !args.Headed || args.Out != "/tmp/reports" || args.Storage != "/tmp/storage" {
		t.Errorf("args = %+v", args)
	}
}

func TestParseArgsRunModeRequirements(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"-mode", "run"},
		{"-mode", "run", "-input", "batch.csv"},
		{"-mode", "run", "-username", "ops@example.com"},
	}
	for _, args := range cases {
		if _, err := cli.ParseArgs(args); err == nil {
			t.Errorf("ParseArgs(%v): expected error", args)
		}
	}
}

func TestParseArgsUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := cli.ParseArgs([]string{"-mode", "daemon"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseArgsBadFlag(t *testing.T) {
	t.Parallel()

	if _, err := cli.ParseArgs([]string{"-definitely-not-a-flag"}); err == nil {
		t.Error("expected flag parse error")
	}
}
