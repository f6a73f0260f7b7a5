package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT mints and verifies identity session tokens.
type JWT interface {
	// Generate creates a signed session for the identity.
	Generate(identity Identity) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key shared with the identity provider.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the lifetime of minted sessions.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Identity is the subject a session is minted for.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// Claims is the identity session payload.
type Claims struct {
	jwt.RegisteredClaims
	// Email is the address the PIN is delivered to.
	Email string `json:"email"`
	// AppMetadata carries provider managed attributes such as role.
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
}

// IdentityID returns the identity id (the sub claim).
func (c Claims) IdentityID() string {
	return c.Subject
}

// Role returns app_metadata.role, or "" when absent.
func (c Claims) Role() string {
	role, _ := c.AppMetadata["role"].(string)
	return role
}

// ExpiresAtTime returns the expiry, or the zero time when the claim is absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

func (c Claims) valid() bool {
	return strings.TrimSpace(c.Subject) != "" && strings.TrimSpace(c.Email) != ""
}

// GetAuth returns the session claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores session claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
