package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/pkg/idempotency"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
)

type IssuePINOutput struct {
	ExpiresAt time.Time
}

func (s *Usecase) IssuePIN(ctx context.Context) (*IssuePINOutput, error) {
	ctx, span := s.startSpan(ctx, "IssuePIN")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out   *IssuePINOutput
		fnErr error
	)
	err = s.idemp.Exec(ctx, "twofactor:issue:"+clm.IdentityID(), func(ctx context.Context) error {
		out, fnErr = s.issuePIN(ctx, clm)
		return fnErr
	}, idempotency.WithRelease(), idempotency.WithLockDuration(30*time.Second))
	if fnErr != nil {
		return nil, fnErr
	}
	if errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.WarnContext(ctx, "pin issuance already in progress", "identity_id", clm.IdentityID())
		return nil, goerror.NewBusiness("A PIN request is already in progress.", goerror.CodeTooManyRequest,
			goerror.WithCause(entity.ErrInProgress))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire pin issuance lock", "identity_id", clm.IdentityID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

func (s *Usecase) issuePIN(ctx context.Context, clm *jwt.Claims) (*IssuePINOutput, error) {
	id := clm.IdentityID()
	now := s.clock.Now()
	p := s.policy()

	rec, err := s.repoDB.GetOTP(ctx, id)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get otp", "identity_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec != nil && rec.IsLocked(now, p) {
		slog.WarnContext(ctx, "pin requested while locked", "identity_id", id, "attempts", rec.Attempts)
		return nil, goerror.NewBusiness(
			fmt.Sprintf("Account temporarily locked due to too many failed attempts. Try again in %d minutes.", lockoutMinutes(p)),
			goerror.CodeTooManyRequest,
			goerror.WithCause(entity.ErrRateLimited),
		)
	}

	pin, err := newPin(nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate pin", "error", err)
		return nil, goerror.NewServer(err)
	}

	pinHash, err := s.hmac.Hash(pin)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash pin", "error", err)
		return nil, goerror.NewServer(err)
	}

	// a lapsed lockout is cleared here too since attempts always restart at zero
	expiresAt := now.Add(p.PinTTL)
	if err := s.repoDB.UpsertOTP(ctx, entity.OTPRecord{
		IdentityID: id,
		PinHash:    string(pinHash),
		ExpiresAt:  expiresAt,
		Attempts:   0,
		IsVerified: false,
		UpdatedAt:  now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert otp", "identity_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMail.SendPin(ctx, clm.Email, pin, p.PinTTL); err != nil {
		slog.ErrorContext(ctx, "failed to send pin email", "identity_id", id, "error", err)
		return nil, goerror.NewBusiness("Failed to send 2FA PIN. Please try again.", goerror.CodeBadGateway,
			goerror.WithCause(errors.Join(entity.ErrDeliveryFailed, err)))
	}

	s.counters.issued.Add(ctx, 1)
	slog.InfoContext(ctx, "pin issued", "identity_id", id, "expires_at", expiresAt)

	return &IssuePINOutput{ExpiresAt: expiresAt}, nil
}
