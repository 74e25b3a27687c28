package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// --- Sign + Verify ---

func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("test-secret")

	t.Run("round-trips claims", func(t *testing.T) {
		raw, err := v.Sign(Claims{UserID: 42, Email: "a@example.com", Role: RoleAdmin}, time.Hour)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}

		c, err := v.Verify(raw)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if c.UserID != 42 || c.Email != "a@example.com" || c.Role != RoleAdmin {
			t.Errorf("unexpected claims: %+v", c)
		}
	})

	t.Run("unknown role degrades to user", func(t *testing.T) {
		raw, _ := v.Sign(Claims{UserID: 1, Role: "superuser"}, time.Hour)
		c, err := v.Verify(raw)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if c.Role != RoleUser {
			t.Errorf("Role: expected user, got %q", c.Role)
		}
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		raw, _ := NewTokenVerifier("other-secret").Sign(Claims{UserID: 1}, time.Hour)
		if _, err := v.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		raw, _ := v.Sign(Claims{UserID: 1}, -time.Hour)
		if _, err := v.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := v.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects non-numeric subject", func(t *testing.T) {
		tok, _ := jwt.NewBuilder().Subject("alice").Expiration(time.Now().Add(time.Hour)).Build()
		signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		if _, err := v.Verify(string(signed)); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
