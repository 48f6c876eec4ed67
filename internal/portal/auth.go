package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"abcbizreport/internal/browser"
	"abcbizreport/internal/logging"
)

// Progress is a one-way, append-only sink for human-readable milestone text.
// The core only ever writes to it.
type Progress func(msg string)

// Authenticator drives the portal's login sequence on one freshly created
// page and classifies the outcome. It never returns a raw error: every
// navigation failure, timeout or portal-side rejection folds into the
// AuthOutcome.
type Authenticator struct {
	cfg    Config
	logger logging.Logger

	// Progress, when set, receives milestone messages.
	Progress Progress
}

// NewAuthenticator creates an Authenticator for the configured portal.
func NewAuthenticator(cfg Config, logger logging.Logger) *Authenticator {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Authenticator{cfg: cfg, logger: logger}
}

func (a *Authenticator) say(format string, args ...any) {
	if a.Progress != nil {
		a.Progress(fmt.Sprintf(format, args...))
	}
}

// Authenticate runs the login state machine against page. On success the
// returned outcome wraps a Session whose page sits at the search view,
// ready for an Engine run. The page is left open on every outcome; the
// caller decides when to dispose of it.
func (a *Authenticator) Authenticate(ctx context.Context, page browser.Page, creds Credentials) AuthOutcome {
	sel := a.cfg.Selectors
	delays := a.cfg.Delays

	a.say("Logging in to the website %s", a.cfg.LoginURL)

	status, err := page.Navigate(ctx, a.cfg.LoginURL)
	if err != nil {
		navErr := &NavigationError{URL: a.cfg.LoginURL, Err: err}
		a.logger.Error("login navigation failed", logging.Field{Key: "error", Value: navErr.Error()})
		return AuthOutcome{Status: AuthFailure, Reason: siteErrorText, Err: navErr}
	}
	if status == 404 || status == 403 {
		a.logger.Warn("login page returned error status", logging.Field{Key: "status", Value: status})
		return AuthOutcome{Status: AuthSiteError, Reason: siteErrorText, Err: &NavigationError{URL: a.cfg.LoginURL, Status: status}}
	}
	a.say("Page loaded")

	if err := settle(ctx, delays.PageSettle); err != nil {
		return a.failure("settle after load", err)
	}

	// The portal renders its own full-page error banner instead of
	// returning an error status.
	if present, err := page.Exists(ctx, sel.ErrorBanner); err != nil {
		return a.failure("check error banner", err)
	} else if present {
		a.logger.Warn("portal error banner present, login not attempted")
		return AuthOutcome{Status: AuthSiteError, Reason: siteErrorText}
	}

	if err := a.typeField(ctx, page, sel.Username, creds.Username); err != nil {
		return a.failure("type username", err)
	}
	a.say("Entered the username %s", creds.Username)
	a.logger.Info("username typed", logging.Field{Key: "username", Value: creds.Username})
	if err := settle(ctx, delays.TypeSettle); err != nil {
		return a.failure("settle after username", err)
	}

	if err := a.typeField(ctx, page, sel.Password, creds.Password); err != nil {
		return a.failure("type password", err)
	}
	a.say("Entered the password %s", strings.Repeat("*", len(creds.Password)))
	a.logger.Info("password typed", logging.Field{Key: "password_len", Value: len(creds.Password)})
	if err := settle(ctx, delays.TypeSettle); err != nil {
		return a.failure("settle after password", err)
	}

	if err := page.WaitVisible(ctx, sel.LoginButton); err != nil {
		return a.failure("wait login button", err)
	}
	if err := page.Click(ctx, sel.LoginButton); err != nil {
		return a.failure("click login button", err)
	}
	a.say("Login button clicked")
	if err := settle(ctx, delays.LoginSettle); err != nil {
		return a.failure("settle after login", err)
	}

	// Invalid credentials and account problems surface as a modal dialog,
	// not as an error; report its text verbatim.
	if present, err := page.Exists(ctx, sel.PopupDialog); err != nil {
		return a.failure("check login dialog", err)
	} else if present {
		text, _, err := page.Text(ctx, sel.PopupText)
		if err != nil {
			return a.failure("read login dialog", err)
		}
		a.logger.Info("login rejected by portal", logging.Field{Key: "reason", Value: text})
		return AuthOutcome{Status: AuthRejected, Reason: strings.TrimSpace(text)}
	}

	// Authenticated; walk the post-login menu to the search view.
	if err := a.clickThrough(ctx, page, sel.DashboardButton, delays.MenuSettle); err != nil {
		return a.failure("open dashboard", err)
	}
	if err := a.clickThrough(ctx, page, sel.MenuItem, delays.MenuSettle); err != nil {
		return a.failure("open search view", err)
	}

	a.say("Login Successfully with username=%s", creds.Username)
	a.logger.Info("authenticated", logging.Field{Key: "username", Value: creds.Username})
	return AuthOutcome{Status: AuthAuthenticated, Session: newSession(page)}
}

func (a *Authenticator) typeField(ctx context.Context, page browser.Page, sel, value string) error {
	if err := page.WaitVisible(ctx, sel); err != nil {
		return err
	}
	return page.Type(ctx, sel, value)
}

func (a *Authenticator) clickThrough(ctx context.Context, page browser.Page, sel string, wait time.Duration) error {
	if err := page.WaitVisible(ctx, sel); err != nil {
		return err
	}
	if err := page.Click(ctx, sel); err != nil {
		return err
	}
	return settle(ctx, wait)
}

func (a *Authenticator) failure(step string, err error) AuthOutcome {
	mapped := stepError(step, err)
	a.logger.Error("login step failed", logging.Field{Key: "step", Value: step}, logging.Field{Key: "error", Value: mapped.Error()})
	return AuthOutcome{Status: AuthFailure, Reason: siteErrorText, Err: mapped}
}

// settle pauses for the fixed delay the SPA needs to finish rendering,
// waking early only on context cancellation.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
