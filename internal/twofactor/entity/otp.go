package entity

import (
	"errors"
	"time"
)

var (
	ErrUnauthenticated = errors.New("twofactor: session is missing or invalid")
	ErrInvalidRequest  = errors.New("twofactor: no pin has been issued")
	ErrExpired         = errors.New("twofactor: pin expired")
	ErrInvalidPin      = errors.New("twofactor: pin does not match")
	ErrRateLimited     = errors.New("twofactor: identity is locked")
	ErrDeliveryFailed  = errors.New("twofactor: pin delivery failed")
	ErrInProgress      = errors.New("twofactor: pin issuance already in progress")
)

const (
	// PinMin and PinMax bound the PIN domain, both inclusive.
	PinMin = 1000
	PinMax = 9999
)

// Policy holds the timing and attempt limits applied to a record.
type Policy struct {
	PinTTL      time.Duration
	MaxAttempts int
	Lockout     time.Duration
}

// DefaultPolicy is 5 minute PINs, 5 attempts and a 15 minute lockout.
func DefaultPolicy() Policy {
	return Policy{
		PinTTL:      5 * time.Minute,
		MaxAttempts: 5,
		Lockout:     15 * time.Minute,
	}
}

// State is the lifecycle position of a record at a given instant.
type State int

const (
	StateUnissued State = iota
	StateIssued
	StateVerified
	StateExpired
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateIssued:
		return "Issued"
	case StateVerified:
		return "Verified"
	case StateExpired:
		return "Expired"
	case StateLocked:
		return "Locked"
	default:
		return "Unissued"
	}
}

// OTPRecord is the durable second-factor state of one identity.
type OTPRecord struct {
	IdentityID string
	PinHash    string
	ExpiresAt  time.Time
	Attempts   int
	IsVerified bool
	UpdatedAt  time.Time
}

// IsExpired reports whether the PIN can no longer be used at now.
func (r *OTPRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsLocked reports whether the failure budget is spent and the lockout
// window anchored at UpdatedAt is still running.
func (r *OTPRecord) IsLocked(now time.Time, p Policy) bool {
	return r.Attempts >= p.MaxAttempts && now.Before(r.UpdatedAt.Add(p.Lockout))
}

// RemainingAttempts is the number of failures left before lockout, never negative.
func (r *OTPRecord) RemainingAttempts(p Policy) int {
	return max(p.MaxAttempts-r.Attempts, 0)
}

// State derives the lifecycle state. A nil record is unissued. A lockout
// whose window has elapsed no longer counts, the record falls back to its
// expiry state until the next issuance resets it.
func (r *OTPRecord) State(now time.Time, p Policy) State {
	switch {
	case r == nil:
		return StateUnissued
	case r.IsVerified:
		return StateVerified
	case r.IsLocked(now, p):
		return StateLocked
	case r.IsExpired(now):
		return StateExpired
	default:
		return StateIssued
	}
}
