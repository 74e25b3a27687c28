// middleware_test.go

// unit tests for RequireAuth middleware.
package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// contextCapture records context values injected by RequireAuth for downstream assertion.
type contextCapture struct {
	called   bool
	userID   int64
	userIDOK bool
	claims   *Claims
}

// capturingHandler records context values then responds 200.
func capturingHandler(cap *contextCapture) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.called = true
		cap.userID, cap.userIDOK = UserIDFromContext(r.Context())
		cap.claims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// assertUnauthorized checks response is 401 JSON with expected message.
func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder, expectedMsg string) {
	t.Helper()
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: expected 401, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}
	body, _ := io.ReadAll(w.Body)
	if expected := `{"message":"` + expectedMsg + `"}`; string(body) != expected {
		t.Errorf("body: expected %q, got %q", expected, string(body))
	}
}

// --- RequireAuth ---

func TestRequireAuth(t *testing.T) {
	v := NewTokenVerifier("test-secret")
	mw := RequireAuth(v)

	t.Run("missing header returns Unauthorized", func(t *testing.T) {
		cap := &contextCapture{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/habits", nil)

		mw(capturingHandler(cap)).ServeHTTP(w, r)

		assertUnauthorized(t, w, "missing token")
		if cap.called {
			t.Error("next handler should not have been called")
		}
	})

	t.Run("non-bearer scheme returns Unauthorized", func(t *testing.T) {
		cap := &contextCapture{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/habits", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		mw(capturingHandler(cap)).ServeHTTP(w, r)

		assertUnauthorized(t, w, "missing token")
		if cap.called {
			t.Error("next handler should not have been called")
		}
	})

	t.Run("invalid token returns Unauthorized", func(t *testing.T) {
		cap := &contextCapture{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/habits", nil)
		r.Header.Set("Authorization", "Bearer garbage")

		mw(capturingHandler(cap)).ServeHTTP(w, r)

		assertUnauthorized(t, w, "invalid token")
		if cap.called {
			t.Error("next handler should not have been called")
		}
	})

	t.Run("valid token injects claims", func(t *testing.T) {
		raw, err := v.Sign(Claims{UserID: 7, Email: "u@example.com", Role: RoleUser}, time.Hour)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		cap := &contextCapture{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/habits", nil)
		r.Header.Set("Authorization", "Bearer "+raw)

		mw(capturingHandler(cap)).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", w.Code)
		}
		if !cap.userIDOK || cap.userID != 7 {
			t.Errorf("user id: expected 7, got %d (ok=%v)", cap.userID, cap.userIDOK)
		}
		if cap.claims == nil || cap.claims.Email != "u@example.com" {
			t.Errorf("unexpected claims: %+v", cap.claims)
		}
	})
}

func TestUserIDFromContextWithoutAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserIDFromContext(r.Context()); ok {
		t.Error("expected ok=false when RequireAuth hasn't run")
	}
}
