// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"abcbizreport/internal/logging"
	"abcbizreport/internal/runlog"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Page ──────────────────────────────────────────────────────────────

// FakePage implements browser.Page against scripted state instead of a real
// browser. Every interaction is appended to Calls as "op:selector" so tests
// can assert on the exact sequence (or absence) of page operations.
type FakePage struct {
	mu sync.Mutex

	// NavStatus is the status Navigate reports; zero means 200.
	NavStatus int
	NavErr    error

	// Present drives Exists.
	Present map[string]bool

	// Texts drives Text; a selector is "found" iff it has an entry.
	Texts map[string]string

	// HTML drives OuterHTML.
	HTML map[string]string

	// MarkerQueue feeds successive boolean Evaluate calls (the no-records
	// predicate), one per lookup. An exhausted queue reads false.
	MarkerQueue []bool

	// FailOps maps "op:selector" to an error injected for that call. By
	// default every occurrence fails; a FailAt entry for the same key
	// restricts the failure to the Nth occurrence (1-based).
	FailOps map[string]error
	FailAt  map[string]int

	Calls  []string
	Closed int

	counts map[string]int
}

func (p *FakePage) record(op, sel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := op + ":" + sel
	p.Calls = append(p.Calls, key)
	if p.counts == nil {
		p.counts = make(map[string]int)
	}
	p.counts[key]++
	if p.FailOps != nil {
		if err, ok := p.FailOps[key]; ok {
			if n, limited := p.FailAt[key]; !limited || n == p.counts[key] {
				return err
			}
		}
	}
	return nil
}

// CallsMatching returns the recorded calls for one op ("type", "click", ...).
func (p *FakePage) CallsMatching(op string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefix := op + ":"
	var out []string
	for _, c := range p.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

func (p *FakePage) Navigate(ctx context.Context, url string) (int, error) {
	if err := p.record("navigate", url); err != nil {
		return 0, err
	}
	if p.NavErr != nil {
		return 0, p.NavErr
	}
	if p.NavStatus == 0 {
		return 200, nil
	}
	return p.NavStatus, nil
}

func (p *FakePage) WaitVisible(ctx context.Context, sel string) error {
	return p.record("wait", sel)
}

func (p *FakePage) Type(ctx context.Context, sel, text string) error {
	return p.record("type", sel)
}

func (p *FakePage) Click(ctx context.Context, sel string) error {
	return p.record("click", sel)
}

func (p *FakePage) Exists(ctx context.Context, sel string) (bool, error) {
	if err := p.record("exists", sel); err != nil {
		return false, err
	}
	return p.Present[sel], nil
}

func (p *FakePage) Text(ctx context.Context, sel string) (string, bool, error) {
	if err := p.record("text", sel); err != nil {
		return "", false, err
	}
	v, ok := p.Texts[sel]
	return v, ok, nil
}

func (p *FakePage) OuterHTML(ctx context.Context, sel string) (string, error) {
	if err := p.record("html", sel); err != nil {
		return "", err
	}
	return p.HTML[sel], nil
}

func (p *FakePage) Evaluate(ctx context.Context, expr string, out any) error {
	if err := p.record("evaluate", ""); err != nil {
		return err
	}
	switch v := out.(type) {
	case nil:
		// fire-and-forget scripts
	case *bool:
		p.mu.Lock()
		if len(p.MarkerQueue) > 0 {
			*v = p.MarkerQueue[0]
			p.MarkerQueue = p.MarkerQueue[1:]
		} else {
			*v = false
		}
		p.mu.Unlock()
	default:
		return fmt.Errorf("fake page: unsupported evaluate output %T", out)
	}
	return nil
}

func (p *FakePage) ScrollBy(ctx context.Context, fraction float64) error {
	return p.record("scroll", "")
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed++
	return nil
}

// ─── Recorder ──────────────────────────────────────────────────────────

// DummyRecorder implements runlog.Recorder with in-memory capture.
type DummyRecorder struct {
	mu      sync.Mutex
	Entries []runlog.Entry
	Fail    error
}

func (r *DummyRecorder) Record(ctx context.Context, e runlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.Entries = append(r.Entries, e)
	return nil
}

func (r *DummyRecorder) Close() error { return nil }
