package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"abcbizreport/internal/app"
	"abcbizreport/internal/batch"
	"abcbizreport/internal/logging"
	"abcbizreport/internal/portal"
	"abcbizreport/internal/report"
	"abcbizreport/internal/runlog"

	_ "abcbizreport/docs/swagger" // generated API docs
)

const maxUploadBytes = 32 << 20

// Server is the HTTP + WebSocket operator console for report runs.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	store        *runlog.Store
}

// NewServer creates a new Server with its own Orchestrator, run-history
// store and operational file log.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	// Make sure storage root exists
	storageRoot, err := expandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		logger.Warn("creating storage root directory", logging.Field{Key: "path", Value: storageRoot}, logging.Field{Key: "error", Value: err.Error()})
	}

	store, err := runlog.NewStore(filepath.Join(storageRoot, "runlog"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening run history store: %w", err)
	}

	fileRec, err := runlog.NewFileRecorder(cfg.AppConfig.LogPath())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating operational log: %w", err)
	}

	orch := app.NewOrchestrator(cfg.AppConfig, logger)
	orch.Store = store
	orch.Recorder = runlog.MultiRecorder{store, fileRec}

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       r,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		store: store,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/runs", s.optionsHandler("GET, POST"))
	r.Options("/runs/{runID}", s.optionsHandler("GET, DELETE"))
	r.Options("/runs/{runID}/records", s.optionsHandler("GET"))
	r.Options("/runs/{runID}/report", s.optionsHandler("GET"))
	r.Options("/runs/{runID}/log", s.optionsHandler("GET"))
	r.Options("/history", s.optionsHandler("GET"))
	r.Options("/reports/compare", s.optionsHandler("POST"))
	r.Options("/ws/runs", s.optionsHandler("GET"))

	// Runs
	r.Post("/runs", s.handleStartRun)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)
	r.Delete("/runs/{runID}", s.handleCancelRun)
	r.Get("/runs/{runID}/records", s.handleGetRunRecords)
	r.Get("/runs/{runID}/report", s.handleDownloadReport)
	r.Get("/runs/{runID}/log", s.handleGetRunLog)

	// Run history (persisted across restarts)
	r.Get("/history", s.handleHistory)

	// Report comparison
	r.Post("/reports/compare", s.handleCompareReports)

	// WebSocket: start a run and stream its progress
	r.Get("/ws/runs", s.handleRunWS)

	// API docs
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Request bodies are not logged: run
// submissions carry credentials.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with file, username and password")
		return
	}

	creds := portal.Credentials{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing batch file upload")
		return
	}
	defer file.Close()

	keys, err := batch.ReadCSV(file)
	if err != nil {
		// Missing columns are a precondition violation; nothing runs.
		s.logger.Warn("rejecting run input", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.orchestrator.StartReportJob(r.Context(), creds, keys)
	if err != nil {
		s.logger.Warn("starting report job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started report job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "total", Value: job.Total})
	// Marshal a snapshot, never the live job the background goroutine mutates.
	writeJSON(w, http.StatusAccepted, s.orchestrator.GetJob(job.ID))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Info("listed runs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	job := s.orchestrator.GetJob(runID)
	if job == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	s.orchestrator.CancelJob(runID)
	s.logger.Info("canceled run", logging.Field{Key: "job_id", Value: runID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetRunRecords(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	job := s.orchestrator.GetJob(runID)
	if job == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Records)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	job := s.orchestrator.GetJob(runID)
	if job == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if job.ReportPath == "" {
		writeError(w, http.StatusConflict, "report not written yet")
		return
	}

	f, err := os.Open(job.ReportPath)
	if err != nil {
		s.logger.Warn("opening report file", logging.Field{Key: "path", Value: job.ReportPath}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "report file unavailable")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(job.ReportPath)))
	_, _ = io.Copy(w, f)
}

func (s *Server) handleGetRunLog(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	entries, err := s.store.Entries(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	runs, err := s.store.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleCompareReports(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with base and head files")
		return
	}
	base, err := readFormFile(r, "base")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	head, err := readFormFile(r, "head")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes := report.Compare(base, head)
	writeJSON(w, http.StatusOK, CompareResponse{Changes: changes})
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file upload", field)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, maxUploadBytes)); err != nil {
		return nil, fmt.Errorf("reading %s file: %w", field, err)
	}
	return buf.Bytes(), nil
}

// WebSockets

func (s *Server) handleRunWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	var req StartRunRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: "expected a start-run request as the first message"})
		return
	}

	job, err := s.orchestrator.StartReportJob(r.Context(), portal.Credentials{Username: req.Username, Password: req.Password}, req.Keys)
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		s.logger.Warn("starting report job", logging.Field{Key: "error", Value: err.Error()})
		return
	}

	s.logger.Info("started report job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(s.orchestrator.GetJob(job.ID))

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
