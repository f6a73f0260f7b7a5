package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
)

func (s *Usecase) SignOut(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "SignOut")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	id := clm.IdentityID()
	if err := s.repoDB.ResetOTPVerified(ctx, id); err != nil {
		slog.ErrorContext(ctx, "failed to repo reset otp verified", "identity_id", id, "error", err)
		return goerror.NewServer(err)
	}

	if clm.ID == "" {
		slog.WarnContext(ctx, "session has no token id, skipping revocation", "identity_id", id)
		return nil
	}

	if err := s.revoker.Revoke(ctx, clm.ID, clm.ExpiresAtTime()); err != nil {
		slog.ErrorContext(ctx, "failed to revoke session", "identity_id", id, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "signed out", "identity_id", id)

	return nil
}
