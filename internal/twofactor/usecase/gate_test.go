package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
	"github.com/stretchr/testify/assert"
)

func TestGatePage(t *testing.T) {
	anon := context.Background()
	user := authed("user-1", "user1@goshen.test", "")
	admin := authed("admin-1", "admin@goshen.test", "admin")
	wrongEmail := authed("admin-2", "other@goshen.test", "admin")
	wrongRole := authed("admin-1", "admin@goshen.test", "customer")

	tests := []struct {
		name     string
		ctx      context.Context
		path     string
		verified bool
		storeErr error
		want     string
	}{
		{name: "public page anonymous", ctx: anon, path: "/collections/all"},
		{name: "home anonymous", ctx: anon, path: "/"},

		{name: "account anonymous", ctx: anon, path: "/account", want: "/auth/login"},
		{name: "account unverified", ctx: user, path: "/account/orders", want: "/auth/2fa"},
		{name: "account verified", ctx: user, path: "/account", verified: true},
		{name: "account store failure", ctx: user, path: "/account", verified: true, storeErr: errors.New("down"), want: "/auth/2fa"},

		{name: "verify step anonymous", ctx: anon, path: "/auth/2fa", want: "/auth/login"},
		{name: "verify step unverified", ctx: user, path: "/auth/2fa"},
		{name: "verify step verified", ctx: user, path: "/auth/2fa", verified: true, want: "/account"},

		{name: "guest page anonymous", ctx: anon, path: "/auth/login"},
		{name: "guest page unverified", ctx: user, path: "/auth/login"},
		{name: "guest page verified", ctx: user, path: "/auth/register", verified: true, want: "/account"},

		{name: "admin anonymous", ctx: anon, path: "/admin", want: "/admin/login"},
		{name: "admin login anonymous", ctx: anon, path: "/admin/login"},
		{name: "admin customer", ctx: user, path: "/admin/products", want: "/"},
		{name: "admin wrong email", ctx: wrongEmail, path: "/admin", want: "/"},
		{name: "admin wrong role", ctx: wrongRole, path: "/admin", want: "/"},
		{name: "admin allowed", ctx: admin, path: "/admin/products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.seed(t, "user-1", "1234", func(r *entity.OTPRecord) { r.IsVerified = tt.verified })
			h.db.getErr = tt.storeErr

			out := h.uc.GatePage(tt.ctx, GatePageInput{Path: tt.path})
			assert.Equal(t, tt.want, out.Redirect)
			assert.Equal(t, tt.want == "", out.Allowed())
		})
	}
}

func TestGatePage_NoAdminEmailConfigured(t *testing.T) {
	h := newHarness(t)
	h.uc.cfg = mustConfig(t, "gate:\n  admin_email: \"\"\n")

	out := h.uc.GatePage(authed("admin-1", "admin@goshen.test", "admin"), GatePageInput{Path: "/admin"})
	assert.Equal(t, "/", out.Redirect)
}

func TestGatePage_ConfiguredRoutes(t *testing.T) {
	h := newHarness(t)
	h.uc.cfg = mustConfig(t, "gate:\n  account_prefix: /me\n  login_path: /signin\n")

	out := h.uc.GatePage(context.Background(), GatePageInput{Path: "/me/orders"})
	assert.Equal(t, entity.RouteAccount, out.Class)
	assert.Equal(t, "/signin", out.Redirect)

	out = h.uc.GatePage(context.Background(), GatePageInput{Path: "/account"})
	assert.True(t, out.Allowed())
}
