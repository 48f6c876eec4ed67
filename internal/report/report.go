// Package report is the output boundary: it serializes one run's result
// records as a delimited report file and compares reports across runs.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"abcbizreport/internal/portal"
)

// DefaultPrefix matches the file name the daily report consumers expect.
const DefaultPrefix = "ABCGovtWebscrapping"

// DefaultDir is the folder daily reports land in.
const DefaultDir = "Daily_Report"

// Columns is the stable column order within one run. Order is not
// semantically significant but never changes mid-run.
var Columns = []string{
	"last_name",
	"service",
	"name",
	"training",
	"status",
	"expiration_date",
	"report_date",
	"record_status",
}

// Write serializes records as CSV with a header row, one row per record, in
// input order.
func Write(w io.Writer, records []portal.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.LastName,
			r.Service,
			r.Name,
			r.Training,
			r.Status,
			r.ExpirationDate,
			r.ReportDate,
			string(r.RecordStatus),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds the date-stamped report file name for a run at t.
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format("2006-01-02_15-04-05"))
}

// WriteFile writes records to path, creating the report directory if needed,
// and returns the number of bytes written.
func WriteFile(path string, records []portal.ResultRecord) (int, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	counted := &countingWriter{w: f}
	if err := Write(counted, records); err != nil {
		return counted.n, err
	}
	return counted.n, nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
