package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"abcbizreport/internal/browser"
	"abcbizreport/internal/logging"
	"abcbizreport/internal/portal"
	"abcbizreport/internal/report"
	"abcbizreport/internal/runlog"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventMessage  JobEventType = "message"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For milestone text
	Message string `json:"message,omitempty"`

	// For progress
	Processed int `json:"processed,omitempty"`
	Total     int `json:"total,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is one authenticate-then-lookup run. Records accumulate as the engine
// emits them; ReportPath is set once the report file lands on disk.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	AuthStatus portal.AuthStatus `json:"auth_status,omitempty"`
	AuthReason string            `json:"auth_reason,omitempty"`

	Total     int  `json:"total"`
	Processed int  `json:"processed"`
	Completed bool `json:"completed"`

	ReportPath string `json:"report_path,omitempty"`

	Records []portal.ResultRecord `json:"-"`
	Events  chan JobEvent         `json:"-"`
}

// Orchestrator owns report jobs: it acquires a browser page, runs the
// authenticator and the lookup engine in sequence on a background goroutine,
// and streams progress events. One page per job, never shared.
type Orchestrator struct {
	cfg    *Config
	logger logging.Logger

	// NewPage acquires a fresh browser page; replaced in tests.
	NewPage func() (browser.Page, error)

	// Recorder, when set, receives one entry per processed key.
	Recorder runlog.Recorder

	// Store, when set, keeps per-run bookkeeping rows.
	Store *runlog.Store

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config and logger.
func NewOrchestrator(cfg *Config, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	o := &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
	o.NewPage = func() (browser.Page, error) {
		return browser.NewPage(cfg.BrowserCfg, logger)
	}
	return o
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		if errMsg != "" {
			j.Error = errMsg
		}
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: status, Error: errMsg})
}

// StartReportJob validates the console-boundary preconditions and launches
// the authenticate-then-lookup sequence in the background. The returned Job
// is the live one: consume its Events channel from it, but read its fields
// through GetJob, which snapshots under the lock.
func (o *Orchestrator) StartReportJob(ctx context.Context, creds portal.Credentials, keys []portal.LookupKey) (*Job, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("username and password are required")
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Total:     len(keys),
		Events:    make(chan JobEvent, 64),
	}

	o.jobsMu.Lock()
	o.jobs[jobID] = job
	o.jobsMu.Unlock()

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.jobsMu.Lock()
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	if o.Store != nil {
		if err := o.Store.StartRun(jobCtx, jobID, len(keys)); err != nil {
			o.logger.Warn("recording run start", logging.Field{Key: "error", Value: err.Error()})
		}
	}

	go o.runReportJob(jobCtx, jobID, creds, keys)

	return job, nil
}

func (o *Orchestrator) runReportJob(ctx context.Context, jobID string, creds portal.Credentials, keys []portal.LookupKey) {
	defer func() {
		o.jobsMu.Lock()
		j := o.jobs[jobID]
		if j != nil {
			j.EndedAt = time.Now().UTC()
		}
		delete(o.jobCancels, jobID)
		o.jobsMu.Unlock()

		// Close events channel so websocket loops terminate cleanly.
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.setStatus(jobID, JobRunning, "")
	say := func(msg string) {
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventMessage, Message: msg})
	}

	page, err := o.NewPage()
	if err != nil {
		o.logger.Error("acquiring browser page", logging.Field{Key: "error", Value: err.Error()})
		o.finishRun(ctx, jobID, 0, false)
		o.setStatus(jobID, JobFailed, err.Error())
		return
	}

	auth := portal.NewAuthenticator(o.cfg.PortalCfg, o.logger)
	auth.Progress = say
	outcome := auth.Authenticate(ctx, page, creds)

	o.jobsMu.Lock()
	if j := o.jobs[jobID]; j != nil {
		j.AuthStatus = outcome.Status
		j.AuthReason = outcome.Reason
	}
	o.jobsMu.Unlock()

	if !outcome.Authenticated() {
		page.Close()
		o.finishRun(ctx, jobID, 0, false)
		if canceled(ctx) {
			o.setStatus(jobID, JobCanceled, ctx.Err().Error())
			return
		}
		o.setStatus(jobID, JobFailed, outcome.Reason)
		return
	}

	engine := portal.NewEngine(o.cfg.PortalCfg, o.logger)
	engine.Progress = say
	engine.OnRecord = func(rec portal.ResultRecord) {
		o.jobsMu.Lock()
		j := o.jobs[jobID]
		var processed int
		if j != nil {
			j.Records = append(j.Records, rec)
			j.Processed = len(j.Records)
			processed = j.Processed
		}
		o.jobsMu.Unlock()

		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventProgress, Processed: processed, Total: len(keys)})

		if o.Recorder != nil {
			err := o.Recorder.Record(ctx, runlog.Entry{
				Time:      time.Now(),
				RunID:     jobID,
				ServiceID: rec.Service,
				Name:      rec.Name,
				Status:    string(rec.RecordStatus),
			})
			if err != nil {
				o.logger.Warn("recording lookup entry", logging.Field{Key: "error", Value: err.Error()})
			}
		}
	}

	// The engine closes the page on every exit path.
	result := engine.Run(ctx, outcome.Session, keys)

	reportPath := filepath.Join(o.cfg.ReportPath(), report.Filename(o.cfg.ReportPrefix, time.Now()))
	if _, err := report.WriteFile(reportPath, result.Records); err != nil {
		o.logger.Error("writing report", logging.Field{Key: "path", Value: reportPath}, logging.Field{Key: "error", Value: err.Error()})
		o.finishRun(ctx, jobID, len(result.Records), result.Completed)
		o.setStatus(jobID, JobFailed, err.Error())
		return
	}

	o.jobsMu.Lock()
	if j := o.jobs[jobID]; j != nil {
		j.ReportPath = reportPath
		j.Completed = result.Completed
	}
	o.jobsMu.Unlock()

	say("Report saved to " + reportPath)
	o.finishRun(ctx, jobID, len(result.Records), result.Completed)

	switch {
	case canceled(ctx):
		o.setStatus(jobID, JobCanceled, ctx.Err().Error())
	case !result.Completed:
		o.setStatus(jobID, JobFailed, result.Err.Error())
	default:
		o.jobsMu.Lock()
		if j := o.jobs[jobID]; j != nil {
			j.Status = JobDone
		}
		o.jobsMu.Unlock()
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventResult, Status: JobDone, Processed: len(result.Records), Total: len(keys)})
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, jobID string, processed int, completed bool) {
	if o.Store == nil {
		return
	}
	if err := o.Store.FinishRun(ctx, jobID, processed, completed); err != nil {
		o.logger.Warn("recording run end", logging.Field{Key: "error", Value: err.Error()})
	}
}

// snapshotJob copies a job for readers outside the orchestrator's lock. The
// background goroutine keeps mutating the live Job, so anything that
// serializes or inspects one must work on a snapshot. The events channel is
// deliberately absent: stream consumers hold the live Job returned by
// StartReportJob.
func snapshotJob(j *Job) *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Events = nil
	cp.Records = append([]portal.ResultRecord(nil), j.Records...)
	return &cp
}

// GetJob returns a point-in-time copy of the job with the given id, or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return snapshotJob(o.jobs[jobID])
}

// ListJobs returns point-in-time copies of all known jobs, unordered.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, snapshotJob(j))
	}
	return out
}

// CancelJob cancels a running job. Cancellation is coarse: it fails the
// page, which surfaces as an abort of the remaining keys.
func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels every running job and releases the recorder.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()
	for _, c := range cancels {
		c()
	}
	if o.Recorder != nil {
		o.Recorder.Close()
	}
}

func canceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
