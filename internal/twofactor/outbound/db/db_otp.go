package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
)

const getOTP = `
SELECT identity_id, pin_hash, expires_at, attempts, is_verified, updated_at
FROM twofactor_otp
WHERE identity_id = $1`

func (s *DB) GetOTP(ctx context.Context, identityID string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetOTP")
	defer func() { s.endSpan(span, err) }()

	var rec entity.OTPRecord
	err = s.conn.QueryRow(ctx, getOTP, identityID).Scan(
		&rec.IdentityID,
		&rec.PinHash,
		&rec.ExpiresAt,
		&rec.Attempts,
		&rec.IsVerified,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	rec.ExpiresAt = rec.ExpiresAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	return &rec, nil
}

const upsertOTP = `
INSERT INTO twofactor_otp (identity_id, pin_hash, expires_at, attempts, is_verified, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (identity_id) DO UPDATE SET
    pin_hash    = EXCLUDED.pin_hash,
    expires_at  = EXCLUDED.expires_at,
    attempts    = EXCLUDED.attempts,
    is_verified = EXCLUDED.is_verified,
    updated_at  = EXCLUDED.updated_at`

func (s *DB) UpsertOTP(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertOTP")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, upsertOTP,
		rec.IdentityID,
		rec.PinHash,
		rec.ExpiresAt,
		rec.Attempts,
		rec.IsVerified,
		rec.UpdatedAt,
	)
	return s.mapError(err)
}

const markOTPVerified = `
UPDATE twofactor_otp
SET is_verified = TRUE, attempts = 0, updated_at = $2
WHERE identity_id = $1`

func (s *DB) MarkOTPVerified(ctx context.Context, identityID string, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkOTPVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, markOTPVerified, identityID, now)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// A spent budget whose lockout window has passed starts over at 1, so the
// count and the window anchor move in the same statement.
const incrementOTPAttempts = `
UPDATE twofactor_otp
SET attempts = CASE
        WHEN attempts >= $3 AND updated_at <= $4 THEN 1
        ELSE attempts + 1
    END,
    updated_at = $2
WHERE identity_id = $1
RETURNING attempts`

func (s *DB) IncrementOTPAttempts(ctx context.Context, identityID string, now time.Time, p entity.Policy) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOTPAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int
	err = s.conn.QueryRow(ctx, incrementOTPAttempts,
		identityID,
		now,
		p.MaxAttempts,
		now.Add(-p.Lockout),
	).Scan(&attempts)
	if err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

// updated_at anchors the lockout window and is left untouched here.
const resetOTPVerified = `
UPDATE twofactor_otp
SET is_verified = FALSE
WHERE identity_id = $1`

func (s *DB) ResetOTPVerified(ctx context.Context, identityID string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetOTPVerified")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, resetOTPVerified, identityID)
	return s.mapError(err)
}
