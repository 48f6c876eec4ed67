// Package runlog keeps the operational trail of lookup runs: one row per
// processed key, plus per-run bookkeeping for the console API.
package runlog

import (
	"context"
	"time"
)

// Entry is one processed key's outcome.
type Entry struct {
	Time      time.Time `json:"time"`
	RunID     string    `json:"run_id"`
	ServiceID string    `json:"service_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}

// Recorder accepts entries as keys are processed. Implementations must be
// safe for use from the single engine goroutine plus console readers.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// MultiRecorder fans one entry out to several recorders. The first error
// wins but every recorder still sees the entry.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, e Entry) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiRecorder) Close() error {
	var firstErr error
	for _, r := range m {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
