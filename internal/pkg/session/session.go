// Package session keeps a Redis denylist of signed-out session token ids.
//
// Session tokens are stateless JWTs; signing out records the token id until
// the token would have expired anyway, so the entry never outlives the token.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyTokenID is returned when a token carries no jti to revoke.
var ErrEmptyTokenID = errors.New("session: token id is empty")

type clocker interface {
	Now() time.Time
}

// Revoker records and checks revoked session token ids.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker implements Revoker on a Redis client.
type RedisRevoker struct {
	client redis.UniversalClient
	clock  clocker
	prefix string
}

// NewRedisRevoker returns a revoker storing keys under "session:revoked:".
func NewRedisRevoker(client redis.UniversalClient, clock clocker) *RedisRevoker {
	return &RedisRevoker{
		client: client,
		clock:  clock,
		prefix: "session:revoked:",
	}
}

// Revoke denies tokenID until expiresAt. Tokens already expired are ignored.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}

	ttl := expiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether tokenID was signed out.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
