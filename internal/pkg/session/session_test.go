package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisRevoker(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	clk := clock.NewManual(time.Now().UTC())
	r := NewRedisRevoker(client, clk)

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", clk.Now().Add(time.Hour)))

	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, "session:revoked:jti-1").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestRedisRevoker_ExpiredTokenIgnored(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	clk := clock.NewManual(time.Now().UTC())
	r := NewRedisRevoker(client, clk)

	require.NoError(t, r.Revoke(ctx, "jti-2", clk.Now().Add(-time.Minute)))

	revoked, err := r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevoker_EmptyID(t *testing.T) {
	r := NewRedisRevoker(nil, clock.New())

	assert.ErrorIs(t, r.Revoke(context.Background(), "", time.Now()), ErrEmptyTokenID)

	revoked, err := r.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
