package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"abcbizreport/internal/app"
	"abcbizreport/internal/browser"
	"abcbizreport/internal/portal"
	"abcbizreport/internal/runlog"
	"abcbizreport/internal/server"
	"abcbizreport/internal/testutil"
)

const sampleHTML = `<html><body><div id="res">
	<span class="name">JOHN DOE ANGELES</span>
	<p class="service">313018426</p>
	<p class="training">Yes</p>
	<p class="status">Active</p>
	<p class="expiration">2027-01-15</p>
</div></body></html>`

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	portalCfg := portal.DefaultConfig()
	portalCfg.Delays = portal.Delays{}
	portalCfg.Selectors.DetailName = "#res .name"
	portalCfg.Selectors.DetailService = "#res .service"
	portalCfg.Selectors.DetailTraining = "#res .training"
	portalCfg.Selectors.DetailStatus = "#res .status"
	portalCfg.Selectors.DetailExpiration = "#res .expiration"

	srv, err := server.NewServer(server.Config{
		AppConfig: &app.Config{
			StorageRoot: t.TempDir(),
			BrowserCfg:  browser.DefaultConfig(),
			PortalCfg:   portalCfg,
		},
		Logger: &testutil.DummyLogger{},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)

	srv.Orchestrator().NewPage = func() (browser.Page, error) {
		return &testutil.FakePage{
			MarkerQueue: []bool{false},
			HTML:        map[string]string{"html": sampleHTML},
		}, nil
	}
	return srv
}

// startRunForm builds the multipart body the POST /runs endpoint accepts.
func startRunForm(t *testing.T, username, password, csvContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if username != "" {
		mw.WriteField("username", username)
	}
	if password != "" {
		mw.WriteField("password", password)
	}
	fw, err := mw.CreateFormFile("file", "input.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, csvContent)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func waitForJob(t *testing.T, srv *server.Server, id string) *app.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /runs/%s: %d %s", id, rec.Code, rec.Body.String())
		}
		var job app.Job
		if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
			t.Fatal(err)
		}
		switch job.Status {
		case app.JobDone, app.JobFailed, app.JobCanceled:
			return &job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestStartRunValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	cases := []struct {
		name     string
		username string
		password string
		csv      string
	}{
		{"missing credentials", "", "", "service_number,last_name\n1,One\n"},
		{"missing columns", "ops@example.com", "hunter22", "foo,bar\n1,2\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			body, contentType := startRunForm(t, c.username, c.password, c.csv)
			req := httptest.NewRequest(http.MethodPost, "/runs", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp server.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error == "" {
				t.Error("want a non-empty error message")
			}
		})
	}
}

func TestStartRunMissingFile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("username", "ops@example.com")
	mw.WriteField("password", "hunter22")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/runs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	body, contentType := startRunForm(t, "ops@example.com", "hunter22",
		"service_number,last_name\n313018426,Angeles\n,\n")
	req := httptest.NewRequest(http.MethodPost, "/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /runs: %d %s", rec.Code, rec.Body.String())
	}
	var started app.Job
	if err := json.NewDecoder(rec.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	if started.ID == "" || started.Total != 2 {
		t.Fatalf("started job = %+v", started)
	}

	final := waitForJob(t, srv, started.ID)
	if final.Status != app.JobDone || !final.Completed {
		t.Fatalf("final job = %+v", final)
	}

	// Records
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+started.ID+"/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET records: %d", rec.Code)
	}
	var records []portal.ResultRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].RecordStatus != portal.RecordSuccess || records[1].RecordStatus != portal.RecordInvalid {
		t.Errorf("records = %+v", records)
	}

	// Report download
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+started.ID+"/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET report: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "JOHN DOE ANGELES") {
		t.Errorf("report body = %q", rec.Body.String())
	}

	// Per-run operational log from the store
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+started.ID+"/log", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET log: %d", rec.Code)
	}
	var entries []runlog.Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("log entries = %+v", entries)
	}

	// Persisted history
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET history: %d", rec.Code)
	}
	var runs []runlog.RunInfo
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != started.ID || !runs[0].Completed {
		t.Errorf("history = %+v", runs)
	}

	// Listing
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET runs: %d", rec.Code)
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for _, path := range []string{"/runs/nope", "/runs/nope/records", "/runs/nope/report"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: %d, want 404", path, rec.Code)
		}
	}
}

func TestCancelRun(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/runs/whatever", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE: %d, want 204", rec.Code)
	}
}

func TestCompareReports(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range map[string]string{
		"base": "header\nrow one\n",
		"head": "header\nrow two\n",
	} {
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/reports/compare", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	var resp server.CompareResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Changes) != 2 {
		t.Errorf("changes = %+v, want one removed and one added", resp.Changes)
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/runs", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing CORS methods header")
	}
}

func TestRunWebSocket(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/runs"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req := server.StartRunRequest{
		Username: "ops@example.com",
		Password: "hunter22",
		Keys:     []portal.LookupKey{{ServiceNumber: "313018426", LastName: "Angeles"}},
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatalf("job = %+v", job)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	sawDone := false
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == app.JobEventResult && ev.Status == app.JobDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("never saw a done result event over the websocket")
	}
}
