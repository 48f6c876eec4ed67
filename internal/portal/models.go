package portal

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"abcbizreport/internal/browser"
)

// Credentials hold one login attempt's username and password. They are
// supplied per session and never persisted. Password content must not be
// logged; log masked length only.
type Credentials struct {
	Username string
	Password string
}

// LookupKey identifies one record to search for.
type LookupKey struct {
	ServiceNumber string `json:"service_number"`
	LastName      string `json:"last_name"`
}

// Valid reports whether both fields survive normalization. Invalid keys are
// never an error; they degrade to an invalid ResultRecord.
func (k LookupKey) Valid() bool {
	return NormalizeServiceNumber(k.ServiceNumber) != "" && strings.TrimSpace(k.LastName) != ""
}

// RecordStatus tags the outcome of one lookup.
type RecordStatus string

const (
	RecordSuccess RecordStatus = "success"
	RecordNoData  RecordStatus = "no-data"
	RecordInvalid RecordStatus = "invalid"
)

// ResultRecord is the scrape result for exactly one LookupKey. The engine
// produces one per input key, in input order, no matter what the portal
// returned for it.
type ResultRecord struct {
	LastName       string       `json:"last_name"`
	Service        string       `json:"service"`
	Name           string       `json:"name"`
	Training       string       `json:"training"`
	Status         string       `json:"status"`
	ExpirationDate string       `json:"expiration_date"`
	ReportDate     string       `json:"report_date"`
	RecordStatus   RecordStatus `json:"record_status"`
}

// AuthStatus classifies the outcome of one authentication attempt.
type AuthStatus string

const (
	// AuthAuthenticated means login succeeded and the session page sits at
	// the search view.
	AuthAuthenticated AuthStatus = "authenticated"
	// AuthRejected means the portal reported bad credentials or an account
	// issue through its dialog. A first-class outcome, not an error.
	AuthRejected AuthStatus = "rejected"
	// AuthSiteError means the portal showed its own error page.
	AuthSiteError AuthStatus = "site-error"
	// AuthFailure covers timeouts, network errors and anything unexpected.
	AuthFailure AuthStatus = "failure"
)

// AuthOutcome is the single return value of Authenticator.Authenticate.
// Only AuthAuthenticated carries a usable Session. Reason is the operator
// text; Err, when set, carries the typed cause (NavigationError,
// TimeoutError) so callers can tell a dead element from an unreachable
// portal.
type AuthOutcome struct {
	Status  AuthStatus
	Reason  string
	Err     error
	Session *Session
}

// Authenticated reports whether the outcome carries a usable session.
func (o AuthOutcome) Authenticated() bool {
	return o.Status == AuthAuthenticated && o.Session != nil
}

// Session owns exactly one authenticated browser page. It is created by the
// Authenticator on successful login and consumed by at most one Engine run;
// a fresh login produces a fresh Session.
type Session struct {
	ID        string
	Page      browser.Page
	StartedAt time.Time

	consumed bool
}

func newSession(page browser.Page) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Page:      page,
		StartedAt: time.Now().UTC(),
	}
}

// BatchResult is the outcome of one Engine run. Completed distinguishes "ran
// to completion" from "engine failed mid-batch"; in the latter case Records
// holds the prefix processed before the failure and Err names the cause.
type BatchResult struct {
	Records   []ResultRecord
	Completed bool
	Err       error
}

// NormalizeServiceNumber coerces a service id that may arrive as a
// float-formatted spreadsheet cell ("313018426.0", "3.13018426e+08") to an
// integer-valued string. Empty, NaN or non-integer input normalizes to "".
func NormalizeServiceNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	// Values at or beyond 2^63 would overflow the int64 conversion.
	if f < 0 || f >= math.MaxInt64 || f != math.Trunc(f) {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}
