package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignOut(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "user-1", "1234", func(r *entity.OTPRecord) { r.IsVerified = true })

	require.NoError(t, h.uc.SignOut(authed("user-1", "user1@goshen.test", "")))

	assert.False(t, h.db.record("user-1").IsVerified)
	assert.Equal(t, t0.Add(time.Hour), h.revoker.revoked["jti-user-1"])
}

func TestSignOut_NoRecord(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.uc.SignOut(authed("user-1", "user1@goshen.test", "")))
	assert.Empty(t, h.db.recs)
	assert.Contains(t, h.revoker.revoked, "jti-user-1")
}

func TestSignOut_WithoutTokenID(t *testing.T) {
	h := newHarness(t)
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "user-1"},
		Email:            "user1@goshen.test",
	})

	require.NoError(t, h.uc.SignOut(ctx))
	assert.Empty(t, h.revoker.revoked)
}

func TestSignOut_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		h := newHarness(t)
		requireGoError(t, h.uc.SignOut(context.Background()), 401, "Authentication required")
	})

	t.Run("revocation store down", func(t *testing.T) {
		h := newHarness(t)
		h.revoker.err = errors.New("redis: connection refused")
		requireGoError(t, h.uc.SignOut(authed("user-1", "user1@goshen.test", "")), 500, "Internal server error")
	})
}
