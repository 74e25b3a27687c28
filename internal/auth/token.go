// token.go -- bearer token verification (HS256 JWT).
//
// Tokens are issued by the auth service; these services only verify them.
// Sign exists for tests and local tooling that need a valid token.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Role is the caller's role claim.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ErrInvalidToken wraps every verification failure so callers needn't care which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	UserID int64
	Email  string
	Role   Role
}

// TokenVerifier verifies (and, for tests, signs) HS256 tokens with a shared secret.
type TokenVerifier struct {
	key []byte
}

// NewTokenVerifier returns a verifier for the given shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{key: []byte(secret)}
}

// Verify checks signature, exp/nbf/iat, and that sub is a positive integer user id.
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, v.key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, tok.Subject())
	}

	claims := &Claims{UserID: userID, Role: RoleUser}
	if email, ok := tok.PrivateClaims()["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := tok.PrivateClaims()["role"].(string); ok && Role(role) == RoleAdmin {
		claims.Role = RoleAdmin
	}
	return claims, nil
}

// Sign issues a token for c valid for ttl.
func (v *TokenVerifier) Sign(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(c.UserID, 10)).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("email", c.Email).
		Claim("role", string(c.Role)).
		Build()
	if err != nil {
		return "", fmt.Errorf("building token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, v.key))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return string(signed), nil
}
