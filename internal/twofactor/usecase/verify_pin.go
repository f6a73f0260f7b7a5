package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/shared/event"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
)

type VerifyPINInput struct {
	Pin string
}

type VerifyPINOutput struct {
	Verified bool
}

func (s *Usecase) VerifyPIN(ctx context.Context, in VerifyPINInput) (*VerifyPINOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyPIN")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	id := clm.IdentityID()
	now := s.clock.Now()
	p := s.policy()

	rec, err := s.repoDB.GetOTP(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Invalid verification request. Please request a new PIN.", goerror.CodeBadRequest,
			goerror.WithCause(entity.ErrInvalidRequest))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp", "identity_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.IdentityID != id {
		slog.WarnContext(ctx, "otp record owner does not match session", "identity_id", id, "owner_id", rec.IdentityID)
		s.publishAsync(ctx, SecurityEvent{
			Kind:       event.TwoFactorSecurityMismatch,
			IdentityID: id,
			Email:      clm.Email,
			OwnerID:    rec.IdentityID,
			OccurredAt: now,
		})
		return nil, errUnauthenticated()
	}

	if rec.IsExpired(now) {
		return nil, goerror.NewBusiness("PIN expired. Please request a new one.", goerror.CodeBadRequest,
			goerror.WithCause(entity.ErrExpired))
	}

	if rec.IsLocked(now, p) {
		slog.WarnContext(ctx, "pin verification while locked", "identity_id", id, "attempts", rec.Attempts)
		msg := fmt.Sprintf("Account locked for %d minutes due to too many attempts.", lockoutMinutes(p))
		return nil, goerror.NewBusiness(msg, goerror.CodeTooManyRequest, goerror.WithCause(entity.ErrRateLimited))
	}

	if wellFormedPin(in.Pin) && s.hmac.Verify(rec.PinHash, in.Pin) {
		return s.verified(ctx, id, clm.Email)
	}

	return nil, s.mismatch(ctx, id, clm.Email)
}

func (s *Usecase) verified(ctx context.Context, id, email string) (*VerifyPINOutput, error) {
	now := s.clock.Now()
	if err := s.repoDB.MarkOTPVerified(ctx, id, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark otp verified", "identity_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.counters.verified.Add(ctx, 1)
	slog.InfoContext(ctx, "second factor verified", "identity_id", id)
	s.publishAsync(ctx, SecurityEvent{
		Kind:       event.TwoFactorSecurityVerified,
		IdentityID: id,
		Email:      email,
		OccurredAt: now,
	})

	return &VerifyPINOutput{Verified: true}, nil
}

func (s *Usecase) mismatch(ctx context.Context, id, email string) error {
	now := s.clock.Now()
	p := s.policy()

	attempts, err := s.repoDB.IncrementOTPAttempts(ctx, id, now, p)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp attempts", "identity_id", id, "error", err)
		return goerror.NewServer(err)
	}

	s.counters.failed.Add(ctx, 1)

	remaining := max(p.MaxAttempts-attempts, 0)
	if remaining > 0 {
		slog.InfoContext(ctx, "incorrect pin", "identity_id", id, "attempts", attempts)
		return goerror.NewBusiness(fmt.Sprintf("Incorrect PIN. %d attempts remaining.", remaining), goerror.CodeBadRequest,
			goerror.WithCause(entity.ErrInvalidPin),
			goerror.WithField("remaining_attempts", strconv.Itoa(remaining)),
		)
	}

	// concurrent failures can overshoot the limit; only the one reaching it reports
	if attempts == p.MaxAttempts {
		s.counters.lockout.Add(ctx, 1)
		slog.WarnContext(ctx, "identity locked after incorrect pins", "identity_id", id, "attempts", attempts)
		s.publishAsync(ctx, SecurityEvent{
			Kind:       event.TwoFactorSecurityLockout,
			IdentityID: id,
			Email:      email,
			OccurredAt: now,
		})
	}

	return goerror.NewBusiness("Incorrect PIN. Account locked.", goerror.CodeBadRequest,
		goerror.WithCause(entity.ErrInvalidPin),
		goerror.WithField("remaining_attempts", "0"),
	)
}
