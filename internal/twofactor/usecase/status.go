package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
)

type StatusOutput struct {
	Verified bool
	Locked   bool
}

func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.repoDB.GetOTP(ctx, clm.IdentityID())
	if errors.Is(err, goerror.ErrNotFound) {
		return &StatusOutput{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp", "identity_id", clm.IdentityID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatusOutput{
		Verified: rec.IsVerified,
		Locked:   rec.IsLocked(s.clock.Now(), s.policy()),
	}, nil
}
