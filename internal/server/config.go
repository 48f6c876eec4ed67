package server

import (
	"abcbizreport/internal/app"
	"abcbizreport/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the console API server
	// (the one-shot CLI uses the orchestrator in-process and does not
	// require the network).
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger
}
