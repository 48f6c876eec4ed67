package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"abcbizreport/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned when a run id is unknown to the store.
var ErrRunNotFound = errors.New("runlog: run not found")

const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	ended_at   TIMESTAMP,
	total      INTEGER NOT NULL DEFAULT 0,
	processed  INTEGER NOT NULL DEFAULT 0,
	completed  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	at         TIMESTAMP NOT NULL,
	service_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
`

// RunInfo is the stored bookkeeping row for one batch run.
type RunInfo struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Completed bool       `json:"completed"`
}

// Store persists runs and entries in SQLite. It implements Recorder.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore opens (creating if needed) the run-history database at dir and
// applies the schema.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create runlog directory: %w", err)
	}

	dbPath := filepath.Join(dir, "runlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("runlog store initialized", logging.Field{Key: "path", Value: dbPath})
	return &Store{db: db, logger: logger}, nil
}

// StartRun registers a run before its first key is processed.
func (s *Store) StartRun(ctx context.Context, id string, total int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, total) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), total)
	if err != nil {
		return fmt.Errorf("start run %s: %w", id, err)
	}
	return nil
}

// FinishRun closes a run's bookkeeping row.
func (s *Store) FinishRun(ctx context.Context, id string, processed int, completed bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, processed = ?, completed = ? WHERE id = ?`,
		time.Now().UTC(), processed, boolToInt(completed), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Record implements Recorder.
func (s *Store) Record(ctx context.Context, e Entry) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, at, service_id, name, status) VALUES (?, ?, ?, ?, ?)`,
		e.RunID, at, e.ServiceID, e.Name, e.Status)
	if err != nil {
		return fmt.Errorf("record entry for run %s: %w", e.RunID, err)
	}
	return nil
}

// Run returns one run's bookkeeping row.
func (s *Store) Run(ctx context.Context, id string) (*RunInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, total, processed, completed FROM runs WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return info, err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, total, processed, completed FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Entries returns every entry recorded for a run, oldest first.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, run_id, service_id, name, status FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Time, &e.RunID, &e.ServiceID, &e.Name, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close implements Recorder.
func (s *Store) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*RunInfo, error) {
	var info RunInfo
	var ended sql.NullTime
	var completed int
	if err := r.Scan(&info.ID, &info.StartedAt, &ended, &info.Total, &info.Processed, &completed); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		info.EndedAt = &t
	}
	info.Completed = completed != 0
	return &info, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
