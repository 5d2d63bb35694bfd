// Package server is the HTTP surface of the note editor: the JSON API the
// browser UI talks to, the SSE change feed, and the embedded static assets.
//
// Load and save outcomes always answer 200; the result, including failures,
// travels inside the document payload. HTTP error codes are reserved for
// protocol problems such as a wrong method or an unreadable body.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"

	"webnote/internal/document"
	"webnote/internal/httputil"
	"webnote/internal/watcher"
)

//go:embed all:web
var webFS embed.FS

// maxContentBytes caps a posted note body. Generous for text, small enough
// that a runaway client cannot exhaust memory.
const maxContentBytes = 8 << 20

// Server wires the document service and the file watcher into HTTP handlers.
type Server struct {
	svc       *document.Service
	watcher   *watcher.Watcher
	version   string
	accessLog bool
	logger    *slog.Logger
}

// New creates a Server around the given service and watcher.
func New(svc *document.Service, w *watcher.Watcher, version string, accessLog bool, logger *slog.Logger) *Server {
	return &Server{
		svc:       svc,
		watcher:   w,
		version:   version,
		accessLog: accessLog,
		logger:    logger,
	}
}

// Handler returns the assembled route tree with middleware applied.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/content", s.handleContent)
	mux.HandleFunc("/api/events", s.watcher.SSEHandler())

	webSub, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("embedded web assets: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(webSub)))

	var h http.Handler = secure(mux)
	if s.accessLog {
		h = s.withAccessLog(h)
	}
	return h, nil
}

// handleStatus answers a liveness probe with editor diagnostics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, r, s.logger, http.MethodGet)
		return
	}
	_, bound := s.svc.Path()
	status := map[string]any{
		"status":          "ok",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"version":         s.version,
		"file":            s.svc.Title(),
		"bound":           bound,
		"encoding":        s.svc.EncodingName(),
		"changed_on_disk": s.watcher.ExternallyChanged(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleContent serves the note on GET and stores it on POST.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeDocument(w, s.svc.Load())

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxContentBytes)
		var doc document.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httputil.Error(w, r, s.logger, http.StatusRequestEntityTooLarge, "note too large")
				return
			}
			httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// Only the content counts; the title and saved flag a client sends
		// are display state it derived from earlier responses.
		s.writeDocument(w, s.svc.Save(doc.Content))

	default:
		httputil.MethodNotAllowed(w, r, s.logger, "GET, POST")
	}
}

func (s *Server) writeDocument(w http.ResponseWriter, doc document.Document) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// secure sets browser hardening headers on every response. The CSP keeps all
// scripts and styles first-party, which the embedded UI satisfies.
func secure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// withAccessLog wraps next with httpsnoop so status and byte counts come
// from the real response, streamed responses included.
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration_ms", m.Duration.Milliseconds(),
			"bytes", m.Written,
			"remote", r.RemoteAddr,
		)
	})
}
