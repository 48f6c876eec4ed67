package portal

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionConsumed is returned when an Engine run is attempted against a
// Session that already fed one. A fresh login produces a fresh Session.
var ErrSessionConsumed = errors.New("portal: session already consumed by a previous run")

// ErrNoSession is returned when an Engine run is attempted without an
// authenticated session.
var ErrNoSession = errors.New("portal: no authenticated session")

// siteErrorText is the message the original operator console showed for any
// portal-side breakage; kept for parity with the legacy report consumers.
const siteErrorText = "Internal Error Occurred while running application. Please Try Again!!"

// NavigationError reports a bad status code or network failure reaching a URL.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("navigate %s: status %d", e.URL, e.Status)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// TimeoutError reports an expected element that never appeared within budget.
type TimeoutError struct {
	Step string
	Err  error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s: timed out: %v", e.Step, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// EngineFatalError reports a page that became unusable mid-batch. It is the
// only error kind that aborts remaining keys.
type EngineFatalError struct {
	Step string
	Key  LookupKey
	Err  error
}

func (e *EngineFatalError) Error() string {
	return fmt.Sprintf("engine fatal at %s (service %s): %v", e.Step, e.Key.ServiceNumber, e.Err)
}

func (e *EngineFatalError) Unwrap() error { return e.Err }

// stepError maps a raw page error to the taxonomy, attributing it to a step.
func stepError(step string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Step: step, Err: err}
	}
	return fmt.Errorf("%s: %w", step, err)
}
