// Package httputil holds the JSON response and request-logging helpers shared
// by the habits, records and auth handler packages.
//
// responses.go -- error bodies are always {"message":"..."}. Messages are
// plain ASCII constants; no user-controlled input is interpolated, so string
// concat is safe here.
package httputil

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as a JSON body with the given status.
// Encoding errors are logged; the status line has already been sent by then.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LogError(r, "failed to encode response", "error", err)
	}
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// InternalServerError logs the error and returns a generic 500 JSON response.
// Never exposes internal error details to prevent information leakage.
func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	LogError(r, "internal server error", "error", err)
	message(w, http.StatusInternalServerError, "internal server error")
}

// BadRequest returns a 400 JSON response with the given message.
// Use for client input validation failures.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	message(w, http.StatusBadRequest, msg)
}

// Unauthorized returns a 401 JSON response.
func Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	message(w, http.StatusUnauthorized, msg)
}

// NotFound returns a 404 JSON response. Also used for resources the caller
// doesn't own, so "doesn't exist" and "not yours" look identical.
func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	message(w, http.StatusNotFound, msg)
}

func message(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":"` + msg + `"}`))
}
