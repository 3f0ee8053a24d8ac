// Package web exposes the ingestion and export pipeline over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"datepull/internal/config"
	"datepull/internal/event"
	"datepull/internal/export"
	"datepull/internal/extract"
	"datepull/internal/form"
	appLog "datepull/internal/log"
)

// Server provides the HTTP API: submission analysis and calendar export.
type Server struct {
	cfg *config.Config
	svc *extract.Service
	mux *http.ServeMux
}

// NewServer constructs a new Server around the given ingestion service.
func NewServer(cfg *config.Config, svc *extract.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="DatePull", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/export/ics", s.handleExportICS)
	s.mux.HandleFunc("/api/export/links", s.handleExportLinks)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAnalyze accepts a multipart submission (fields: file, text, pdfPages)
// and returns the extracted event list.
//
// POST /api/analyze -> {"events": [...]}
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	boundary, err := form.Boundary(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	decoded, err := form.Decode(body, boundary)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.svc.Analyze(r.Context(), extract.NewSubmission(decoded))
	if err != nil {
		if errors.Is(err, extract.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "please provide a schedule file or schedule text")
			return
		}
		appLog.Error("analyze failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// handleExportICS turns an event list into a downloadable iCalendar file.
//
// POST /api/export/ics -> text/calendar attachment
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	events, ok := s.readEvents(w, r)
	if !ok {
		return
	}

	doc := export.ICS(events, s.cfg.Timezone)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="termine.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// handleExportLinks returns per-event provider deep links.
//
// POST /api/export/links -> [{"google": ..., "outlook": ..., "yahoo": ...}]
func (s *Server) handleExportLinks(w http.ResponseWriter, r *http.Request) {
	events, ok := s.readEvents(w, r)
	if !ok {
		return
	}

	links := make([]export.Links, 0, len(events))
	for _, e := range events {
		links = append(links, export.BuildLinks(e, s.cfg.Timezone))
	}
	writeJSON(w, http.StatusOK, links)
}

// readEvents decodes and validates a {"events": [...]} request body. On
// failure it writes the error response and returns ok=false.
func (s *Server) readEvents(w http.ResponseWriter, r *http.Request) ([]event.Event, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}

	var req eventsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	for i := range req.Events {
		req.Events[i].Normalize()
		if err := req.Events[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("event %d: %v", i, err))
			return nil, false
		}
	}
	return req.Events, true
}

// eventsResponse is the JSON shape shared by the analyze response and the
// export request bodies.
type eventsResponse struct {
	Events []event.Event `json:"events"`
}

// StartServer runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, svc *extract.Service) error {
	s := NewServer(cfg, svc)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
