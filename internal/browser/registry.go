package browser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"abcbizreport/internal/logging"
)

// BackendConstructor constructs a Page given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (Page, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the
// previous constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewPage constructs a Page from the configured backend. It returns an error
// if the named backend has not been registered.
func NewPage(cfg Config, logger logging.Logger) (Page, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.NopLogger{}
	}

	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	p, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if p == nil {
		return nil, errors.New("browser constructor returned nil")
	}
	return p, nil
}

// ListBackends returns the list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}

// RegisterDefaultBackends registers the chromedp backend. Call this from
// init() or early in main() to make backends available to NewPage.
func RegisterDefaultBackends() {
	RegisterBackend(string(BackendChromedp), func(cfg Config, logger logging.Logger) (Page, error) {
		p, err := newChromedpPage(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create chromedp page: %w", err)
		}
		logger.Debug("created chromedp page",
			logging.Field{Key: "headless", Value: cfg.Headless},
			logging.Field{Key: "window", Value: fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)})
		return p, nil
	})
}
