package server

import (
	"abcbizreport/internal/portal"
	"abcbizreport/internal/report"
)

// StartRunRequest is the JSON payload accepted over the websocket run
// endpoint. The REST endpoint takes the same data as a multipart form with
// the batch as an uploaded CSV file.
type StartRunRequest struct {
	Username string             `json:"username" example:"operator@example.com"`
	Password string             `json:"password"`
	Keys     []portal.LookupKey `json:"keys"`
}

// CompareResponse wraps the row-level changes between two report files.
type CompareResponse struct {
	Changes []report.Change `json:"changes"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
