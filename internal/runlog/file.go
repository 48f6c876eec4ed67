package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileHeader = "Reported Date, ServiceID, Name, Status\n"

// FileRecorder appends one line per processed key to a date-named text file
// (logfile_YYYY-MM-DD.txt), the format the legacy report consumers read.
type FileRecorder struct {
	dir string

	mu sync.Mutex
}

// NewFileRecorder creates the log directory if needed.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileRecorder{dir: dir}, nil
}

// Record implements Recorder. The header line is written once per file.
func (f *FileRecorder) Record(ctx context.Context, e Entry) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := filepath.Join(f.dir, fmt.Sprintf("logfile_%s.txt", at.Format("2006-01-02")))
	_, statErr := os.Stat(name)
	fresh := os.IsNotExist(statErr)

	file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if fresh {
		if _, err := file.WriteString(fileHeader); err != nil {
			return fmt.Errorf("write log header: %w", err)
		}
	}
	line := fmt.Sprintf("%s, %s, %s, %s\n", at.Format("2006-01-02 15:04:05"), e.ServiceID, e.Name, e.Status)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}

func (f *FileRecorder) Close() error { return nil }
