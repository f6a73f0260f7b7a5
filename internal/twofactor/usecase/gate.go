package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goshen/internal/pkg/gate"
	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
)

type GatePageInput struct {
	Path string
}

// GatePageOutput either allows the page or names where to send the browser.
type GatePageOutput struct {
	Class    entity.RouteClass
	Redirect string
}

func (o GatePageOutput) Allowed() bool {
	return o.Redirect == ""
}

// GatePage decides access to a page. It never errors: any failure to prove
// access turns into a redirect.
func (s *Usecase) GatePage(ctx context.Context, in GatePageInput) GatePageOutput {
	ctx, span := s.startSpan(ctx, "GatePage")
	defer span.End()

	routes := s.routes()
	class := routes.Classify(in.Path)
	clm := jwt.GetAuth(ctx)
	out := GatePageOutput{Class: class}

	switch class {
	case entity.RouteAdmin:
		if clm == nil {
			out.Redirect = routes.AdminLogin
		} else if !s.isAdmin(ctx, clm) {
			slog.WarnContext(ctx, "admin area denied", "identity_id", clm.IdentityID(), "role", clm.Role(), "path", in.Path)
			out.Redirect = routes.Home
		}

	case entity.RouteAccount:
		if clm == nil {
			out.Redirect = routes.Login
		} else if !s.isVerified(ctx, clm.IdentityID()) {
			out.Redirect = routes.VerifyStep
		}

	case entity.RouteVerifyStep:
		if clm == nil {
			out.Redirect = routes.Login
		} else if s.isVerified(ctx, clm.IdentityID()) {
			out.Redirect = routes.Account
		}

	case entity.RouteGuestAuth:
		if clm != nil && s.isVerified(ctx, clm.IdentityID()) {
			out.Redirect = routes.Account
		}
	}

	return out
}

// isVerified reads the durable flag. A store failure reads as unverified.
func (s *Usecase) isVerified(ctx context.Context, id string) bool {
	rec, err := s.repoDB.GetOTP(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return false
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp", "identity_id", id, "error", err)
		return false
	}

	return rec.IdentityID == id && rec.IsVerified
}

func (s *Usecase) isAdmin(ctx context.Context, clm *jwt.Claims) bool {
	adminEmail := strings.TrimSpace(s.cfg.GetString("gate.admin_email"))
	if adminEmail == "" || !strings.EqualFold(clm.Email, adminEmail) {
		return false
	}

	ok, err := s.enforcer.Enforce(clm.Role(), gate.ObjectAdminArea, gate.ActionAccess)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check admin policy", "identity_id", clm.IdentityID(), "error", err)
		return false
	}

	return ok
}
