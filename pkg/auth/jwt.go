// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrKeysUnavailable is returned when verification keys cannot be obtained.
var ErrKeysUnavailable = errors.New("auth: verification keys unavailable")

// Claims is the verified identity carried by a request.
type Claims struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// tokenClaims is the JWT payload shape: identity-provider tokens carry the
// uid in user_id, plain JWTs in sub.
type tokenClaims struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) toClaims() *Claims {
	uid := c.UserID
	if uid == "" {
		uid = c.Subject
	}
	out := &Claims{UID: uid, Email: strings.ToLower(c.Email), Name: c.Name}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// parserOptions builds the jwt parser options shared by both verifiers.
func parserOptions(methods []string, issuer, audience string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func finish(token *jwt.Token, err error) (*Claims, error) {
	if err != nil {
		if errors.Is(err, ErrKeysUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if tc.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}
	return tc.toClaims(), nil
}

// ─── Shared secret (HS256) ────────────────────────────────────────────────────

// SecretVerifier verifies HS256 tokens signed with a shared secret. Used for
// local development and tests when no identity provider is configured.
type SecretVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewSecretVerifier returns a verifier for tokens signed with secret.
func NewSecretVerifier(secret, issuer, audience string) *SecretVerifier {
	return &SecretVerifier{
		secret: []byte(secret),
		opts:   parserOptions([]string{jwt.SigningMethodHS256.Alg()}, issuer, audience),
	}
}

func (v *SecretVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	return finish(token, err)
}

// GenerateToken signs an HS256 token for email, valid for ttl.
func GenerateToken(secret, uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email:  email,
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
