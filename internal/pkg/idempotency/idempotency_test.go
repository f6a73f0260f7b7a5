package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTracker(t *testing.T) (*StateTracker, *redis.Client) {
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

	return New(client, "test:"), client
}

func TestExec_MarksCompletedAndFailed(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Exec(ctx, "k1", func(context.Context) error { return nil }))
	assert.ErrorIs(t, tr.Exec(ctx, "k1", func(context.Context) error { return nil }), ErrAlreadyCompleted)

	boom := errors.New("boom")
	assert.ErrorIs(t, tr.Exec(ctx, "k2", func(context.Context) error { return boom }), boom)
	assert.ErrorIs(t, tr.Exec(ctx, "k2", func(context.Context) error { return nil }), ErrAlreadyFailed)
}

func TestExec_ReleaseAllowsRerun(t *testing.T) {
	tr, client := newTracker(t)
	ctx := context.Background()

	inside := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tr.Exec(ctx, "issue:u-1", func(context.Context) error {
			close(inside)
			time.Sleep(200 * time.Millisecond)
			return nil
		}, WithRelease())
	}()

	<-inside
	err := tr.Exec(ctx, "issue:u-1", func(context.Context) error { return nil }, WithRelease())
	assert.ErrorIs(t, err, ErrAlreadyInProgress)
	require.NoError(t, <-done)

	n, err := client.Exists(ctx, "test:issue:u-1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, tr.Exec(ctx, "issue:u-1", func(context.Context) error { return nil }, WithRelease()))
}

func TestAcquire_InvalidState(t *testing.T) {
	tr, client := newTracker(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:k3", "garbage", time.Minute).Err())

	state, err := tr.Acquire(ctx, "k3", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateError, state)
}
