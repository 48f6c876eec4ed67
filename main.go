package main

import (
	"context"
	"fmt"
	"os"

	"abcbizreport/internal/app"
	"abcbizreport/internal/batch"
	"abcbizreport/internal/browser"
	"abcbizreport/internal/cli"
	"abcbizreport/internal/logging"
	"abcbizreport/internal/portal"
	"abcbizreport/internal/runlog"
	"abcbizreport/internal/server"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	browser.RegisterDefaultBackends()
	logger := logging.NewStdoutLogger("abcbizreport")

	cfg := app.DefaultConfig()
	cfg.BrowserCfg.Headless = !args.Headed
	if args.Storage != "" {
		cfg.StorageRoot = args.Storage
	} else if args.Mode == "run" {
		// One-shot runs drop their reports and logs next to the caller,
		// matching the legacy desktop tool.
		cfg.StorageRoot = "."
	}
	if args.Out != "" {
		cfg.ReportDir = args.Out
	}

	switch args.Mode {
	case "serve":
		srv, err := server.NewServer(server.Config{
			ListenAddr: args.ListenAddr,
			AppConfig:  cfg,
			Logger:     logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "starting console server: %v\n", err)
			os.Exit(1)
		}
		defer srv.Close()

		logger.Info("console listening", logging.Field{Key: "addr", Value: args.ListenAddr})
		if err := srv.HTTPServer().ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "console server: %v\n", err)
			os.Exit(1)
		}

	case "run":
		os.Exit(runOnce(cfg, args, logger))
	}
}

// runOnce drives a single authenticate-then-lookup batch and prints the
// progress stream to stdout. Returns the process exit code.
func runOnce(cfg *app.Config, args *cli.CLIArgs, logger logging.Logger) int {
	password := args.Password
	if password == "" {
		password = os.Getenv("ABCBIZ_PASSWORD")
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "missing portal password: pass -password or set ABCBIZ_PASSWORD")
		return 2
	}

	keys, err := batch.ReadFile(args.Input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	orch := app.NewOrchestrator(cfg, logger)
	if rec, err := runlog.NewFileRecorder(cfg.LogPath()); err != nil {
		logger.Warn("operational log disabled", logging.Field{Key: "error", Value: err.Error()})
	} else {
		orch.Recorder = rec
	}
	defer orch.Close()

	creds := portal.Credentials{Username: args.Username, Password: password}
	job, err := orch.StartReportJob(context.Background(), creds, keys)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	for ev := range job.Events {
		switch ev.Type {
		case app.JobEventMessage:
			fmt.Println(ev.Message)
		case app.JobEventProgress:
			fmt.Printf("Processed %d of %d\n", ev.Processed, ev.Total)
		case app.JobEventStatus:
			if ev.Error != "" {
				fmt.Printf("%s: %s\n", ev.Status, ev.Error)
			}
		}
	}

	final := orch.GetJob(job.ID)
	if final == nil {
		return 1
	}
	if final.ReportPath != "" {
		fmt.Printf("Report: %s\n", final.ReportPath)
	}
	if final.Status != app.JobDone || !final.Completed {
		return 1
	}
	return 0
}
