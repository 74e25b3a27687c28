// middleware.go

// Bearer token authentication middleware.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MGallo-Code/habitual/internal/httputil"
)

// contextKey is unexported to prevent collisions with other packages using the same context.
type contextKey string

const claimsKey contextKey = "claims"

// WithClaims returns a copy of ctx carrying c. RequireAuth uses it; tests can too.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext retrieves the authenticated caller's claims.
// Returns nil and false if RequireAuth hasn't run.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext retrieves the authenticated caller's user id.
// Returns 0 and false if RequireAuth hasn't run.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

// RequireAuth validates the Authorization: Bearer header.
// Injects the verified claims into context on success; returns 401 on failure.
func RequireAuth(v *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				httputil.LogWarn(r, "require auth failed", "reason", "missing_token")
				httputil.Unauthorized(w, r, "missing token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				httputil.LogWarn(r, "require auth failed", "reason", "invalid_token", "error", err)
				httputil.Unauthorized(w, r, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
