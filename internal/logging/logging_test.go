package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"abcbizreport/internal/logging"
)

type logLine struct {
	Level     string         `json:"level"`
	Msg       string         `json:"msg"`
	Component string         `json:"component"`
	Time      string         `json:"time"`
	Fields    map[string]any `json:"fields"`
}

func TestWriterLoggerEmitsJSONLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWriterLogger("Test", &buf)

	logger.Info("hello", logging.Field{Key: "count", Value: 3})
	logger.Error("broken")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}

	var first logLine
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	if first.Level != "info" || first.Msg != "hello" || first.Component != "Test" {
		t.Errorf("line 0 = %+v", first)
	}
	if got, ok := first.Fields["count"].(float64); !ok || got != 3 {
		t.Errorf("count field = %v", first.Fields["count"])
	}
	if first.Time == "" {
		t.Error("time must be stamped")
	}

	var second logLine
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second.Level != "error" {
		t.Errorf("line 1 level = %q", second.Level)
	}
}

func TestWithPersistsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWriterLogger("Parent", &buf)
	child := logger.With(logging.Field{Key: "job_id", Value: "abc"})

	child.Info("step one")
	child.Info("step two", logging.Field{Key: "extra", Value: true})

	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry logLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatal(err)
		}
		if entry.Fields["job_id"] != "abc" {
			t.Errorf("line %d missing persisted field: %+v", i, entry)
		}
	}
}

func TestWithComponentOverride(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWriterLogger("Parent", &buf)
	logger.With(logging.Field{Key: "component", Value: "Child"}).Info("ping")

	var entry logLine
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Component != "Child" {
		t.Errorf("component = %q, want override", entry.Component)
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	var logger logging.Logger = logging.NopLogger{}
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	if logger.With(logging.Field{Key: "k", Value: "v"}) == nil {
		t.Error("With must return a usable logger")
	}
}
