// logging.go -- Request-scoped logging helpers.
//
// Wraps slog with automatic extraction of request context (request id, IP,
// user agent, method, path) so handlers don't repeat these fields on every call.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// reqAttrs returns standard request-scoped attributes for logging.
func reqAttrs(r *http.Request) []any {
	return []any{
		"request_id", middleware.GetReqID(r.Context()),
		"ip", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"method", r.Method,
		"path", r.URL.Path,
	}
}

// LogDebug logs at debug level with automatic request context.
func LogDebug(r *http.Request, msg string, args ...any) {
	slog.Debug(msg, append(reqAttrs(r), args...)...)
}

// LogInfo logs at info level with automatic request context.
func LogInfo(r *http.Request, msg string, args ...any) {
	slog.Info(msg, append(reqAttrs(r), args...)...)
}

// LogWarn logs at warn level with automatic request context.
func LogWarn(r *http.Request, msg string, args ...any) {
	slog.Warn(msg, append(reqAttrs(r), args...)...)
}

// LogError logs at error level with automatic request context.
func LogError(r *http.Request, msg string, args ...any) {
	slog.Error(msg, append(reqAttrs(r), args...)...)
}
