package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"datepull/internal/config"
	"datepull/internal/event"
	"datepull/internal/export"
	"datepull/internal/extract"
)

type fakeExtractor struct {
	response []byte
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string, _ string) ([]byte, error) {
	return f.response, nil
}

func testServer(response string) *Server {
	cfg := config.DefaultConfig()
	svc := extract.NewService(&fakeExtractor{response: []byte(response)}, cfg.Timezone)
	return NewServer(cfg, svc)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := testServer(`{"events": []}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	s := testServer(`{"events": [{
		"title": "Analysis I",
		"date": "2026-09-07",
		"start_time": "10:00",
		"end_time": "12:00",
		"location": "Hörsaal 5C",
		"notes": "",
		"recurrence": "FREQ=WEEKLY;BYDAY=MO",
		"attendees": [],
		"all_day": false
	}]}`)

	body, contentType := multipartBody(t, map[string]string{"text": "Montags, 10:00-12:00, Analysis I"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Events []event.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Title != "Analysis I" {
		t.Errorf("unexpected events: %+v", resp.Events)
	}
}

func TestAnalyzeRejectsNonMultipart(t *testing.T) {
	s := testServer(`{"events": []}`)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("error response must carry a descriptive message")
	}
}

func TestAnalyzeRejectsEmptySubmission(t *testing.T) {
	s := testServer(`{"events": []}`)

	body, contentType := multipartBody(t, map[string]string{"pdfPages": "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	s := testServer(`{"events": []}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestAnalyzeEmptyResultIsSuccess(t *testing.T) {
	s := testServer(`{"events": []}`)

	body, contentType := multipartBody(t, map[string]string{"text": "kein Stundenplan"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"events":[]`) {
		t.Errorf("zero events must serialize as an empty list, got %s", rec.Body.String())
	}
}

func exportRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	payload := map[string]any{
		"events": []event.Event{{
			Title:     "Analysis I",
			Date:      "2026-09-07",
			StartTime: "10:00",
			EndTime:   "12:00",
			Attendees: []string{},
		}},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestExportICS(t *testing.T) {
	s := testServer(`{"events": []}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, exportRequest(t, "/api/export/ics"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `.ics"`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("body does not start with BEGIN:VCALENDAR: %q", rec.Body.String()[:40])
	}
}

func TestExportICSRejectsInvalidEvent(t *testing.T) {
	s := testServer(`{"events": []}`)

	body := `{"events": [{"title": "", "date": "2026-09-07"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/export/ics", strings.NewReader(body))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExportLinks(t *testing.T) {
	s := testServer(`{"events": []}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, exportRequest(t, "/api/export/links"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var links []export.Links
	if err := json.Unmarshal(rec.Body.Bytes(), &links); err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d link sets, want 1", len(links))
	}
	if !strings.Contains(links[0].Google, "www.google.com/calendar/render") {
		t.Errorf("google link = %q", links[0].Google)
	}
	if !strings.Contains(links[0].Outlook, "outlook.office.com") {
		t.Errorf("outlook link = %q", links[0].Outlook)
	}
	if !strings.Contains(links[0].Yahoo, "calendar.yahoo.com") {
		t.Errorf("yahoo link = %q", links[0].Yahoo)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	svc := extract.NewService(&fakeExtractor{response: []byte(`{"events": []}`)}, cfg.Timezone)
	s := NewServer(cfg, svc)

	// Protected endpoint without credentials.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, exportRequest(t, "/api/export/links"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// With credentials.
	req := exportRequest(t, "/api/export/links")
	req.SetBasicAuth("u", "p")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// /health stays open.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
}
