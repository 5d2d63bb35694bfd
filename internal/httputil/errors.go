// Package httputil writes transport-level HTTP errors as JSON.
//
// Only protocol problems (wrong method, unreadable body) go through here.
// A failed load or save of the note is not an HTTP error: those answer 200
// with the outcome carried inside the document payload.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error logs the failure with its request context and writes a JSON error
// body so the editor's fetch().json() path can parse it.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, reason string) {
	logger.Error(reason,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":  reason,
		"status": status,
	})
}

// MethodNotAllowed rejects the request with a 405 and an Allow header.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, allow string) {
	w.Header().Set("Allow", allow)
	Error(w, r, logger, http.StatusMethodNotAllowed, "method not allowed")
}
