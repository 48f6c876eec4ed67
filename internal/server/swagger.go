package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title abcbiz-report API
// @version 0.1
// @description Operator console for portal report runs: submit a credentials
// @description and batch upload, follow progress, download the resulting report.
// @BasePath /
