package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"abcbizreport/internal/browser"
	"abcbizreport/internal/logging"
)

// Engine runs an ordered batch of lookups against an authenticated session.
// Strictly sequential: one page, one key at a time, no retries. It produces
// exactly one ResultRecord per input key unless the page itself dies, in
// which case the remaining keys are absent and Completed is false.
type Engine struct {
	cfg    Config
	logger logging.Logger

	// Progress, when set, receives milestone messages.
	Progress Progress

	// OnRecord, when set, is called once per produced record, in order.
	OnRecord func(ResultRecord)

	// now stamps ReportDate; overridable in tests.
	now func() time.Time
}

// NewEngine creates a lookup Engine for the configured portal.
func NewEngine(cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{cfg: cfg, logger: logger, now: time.Now}
}

func (e *Engine) say(format string, args ...any) {
	if e.Progress != nil {
		e.Progress(fmt.Sprintf(format, args...))
	}
}

// Run consumes session and processes keys in order. The session's page is
// closed before Run returns on every path: completion, empty batch and
// mid-batch failure alike.
func (e *Engine) Run(ctx context.Context, session *Session, keys []LookupKey) BatchResult {
	if session == nil || session.Page == nil {
		return BatchResult{Err: ErrNoSession}
	}
	if session.consumed {
		return BatchResult{Err: ErrSessionConsumed}
	}
	session.consumed = true
	defer session.Page.Close()

	e.say("Total Number of Records %d", len(keys))

	records := make([]ResultRecord, 0, len(keys))
	for i, key := range keys {
		e.say("Processing record %d out of %d", i+1, len(keys))

		service := NormalizeServiceNumber(key.ServiceNumber)
		lastName := strings.TrimSpace(key.LastName)

		if service == "" || lastName == "" {
			rec := e.blankRecord(service, lastName, RecordInvalid)
			records = append(records, rec)
			e.emit(rec)
			e.say("Server ID or Last name is missing for last name %s", lastName)
			continue
		}

		rec, err := e.lookupOne(ctx, session.Page, service, lastName)
		if err != nil {
			fatal := &EngineFatalError{Step: "lookup", Key: key, Err: err}
			e.logger.Error("batch aborted",
				logging.Field{Key: "service", Value: service},
				logging.Field{Key: "processed", Value: len(records)},
				logging.Field{Key: "error", Value: err.Error()})
			return BatchResult{Records: records, Completed: false, Err: fatal}
		}
		records = append(records, rec)
		e.emit(rec)
	}

	return BatchResult{Records: records, Completed: true}
}

// lookupOne runs the fixed per-key interaction sequence: fill, search,
// settle, scroll, branch on the no-records marker, extract, clear.
func (e *Engine) lookupOne(ctx context.Context, page browser.Page, service, lastName string) (ResultRecord, error) {
	sel := e.cfg.Selectors

	if err := page.WaitVisible(ctx, sel.ServiceID); err != nil {
		return ResultRecord{}, stepError("wait service input", err)
	}
	if err := page.WaitVisible(ctx, sel.LastName); err != nil {
		return ResultRecord{}, stepError("wait last name input", err)
	}
	if err := page.Type(ctx, sel.ServiceID, service); err != nil {
		return ResultRecord{}, stepError("type service id", err)
	}
	if err := page.Type(ctx, sel.LastName, lastName); err != nil {
		return ResultRecord{}, stepError("type last name", err)
	}

	if err := page.WaitVisible(ctx, sel.SearchButton); err != nil {
		return ResultRecord{}, stepError("wait search button", err)
	}
	if err := page.Click(ctx, sel.SearchButton); err != nil {
		return ResultRecord{}, stepError("click search", err)
	}
	if err := settle(ctx, e.cfg.Delays.SearchSettle); err != nil {
		return ResultRecord{}, err
	}

	// The result panel renders lazily below the fold; a small scroll nudges it.
	if err := page.ScrollBy(ctx, 0.2); err != nil {
		return ResultRecord{}, stepError("scroll results", err)
	}

	empty, err := e.noRecords(ctx, page)
	if err != nil {
		return ResultRecord{}, stepError("check no-records marker", err)
	}

	var rec ResultRecord
	if empty {
		e.logger.Info("no records found",
			logging.Field{Key: "service", Value: service},
			logging.Field{Key: "last_name", Value: lastName})
		rec = e.blankRecord(service, lastName, RecordNoData)
	} else {
		e.logger.Info("record found", logging.Field{Key: "service", Value: service})
		rec, err = e.extract(ctx, page, service, lastName)
		if err != nil {
			return ResultRecord{}, err
		}
	}

	// Mandatory: clearing the form resets state for the next key; skipping
	// it corrupts the following query.
	if err := page.WaitVisible(ctx, sel.ClearButton); err != nil {
		return ResultRecord{}, stepError("wait clear button", err)
	}
	if err := page.Click(ctx, sel.ClearButton); err != nil {
		return ResultRecord{}, stepError("click clear", err)
	}

	return rec, nil
}

// noRecords evaluates the in-page marker predicate for the "no records by
// selected search parameters" text inside the results container.
func (e *Engine) noRecords(ctx context.Context, page browser.Page) (bool, error) {
	script := fmt.Sprintf(`(() => {
	const div = document.querySelector(%q);
	if (!div) {
		return false;
	}
	const p = div.querySelector('p');
	return !!p && p.textContent.trim() === %q;
})()`, e.cfg.Selectors.ResultsContainer, e.cfg.Selectors.NoRecordsText)

	var present bool
	if err := page.Evaluate(ctx, script, &present); err != nil {
		return false, err
	}
	return present, nil
}

func (e *Engine) extract(ctx context.Context, page browser.Page, service, lastName string) (ResultRecord, error) {
	html, err := page.OuterHTML(ctx, "html")
	if err != nil {
		return ResultRecord{}, stepError("snapshot result page", err)
	}
	fields, err := extractDetailFields(html, e.cfg.Selectors)
	if err != nil {
		return ResultRecord{}, stepError("parse result page", err)
	}

	rec := ResultRecord{
		LastName:       lastName,
		Service:        fields.Service,
		Name:           fields.Name,
		Training:       fields.Training,
		Status:         fields.Status,
		ExpirationDate: fields.Expiration,
		ReportDate:     e.reportDate(),
		RecordStatus:   RecordSuccess,
	}
	if rec.Service == "" {
		rec.Service = service
	}
	return rec, nil
}

func (e *Engine) blankRecord(service, lastName string, status RecordStatus) ResultRecord {
	return ResultRecord{
		LastName:     lastName,
		Service:      service,
		ReportDate:   e.reportDate(),
		RecordStatus: status,
	}
}

func (e *Engine) reportDate() string {
	return e.now().Format("2006-01-02")
}

func (e *Engine) emit(rec ResultRecord) {
	if e.OnRecord != nil {
		e.OnRecord(rec)
	}
}
