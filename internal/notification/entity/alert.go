package entity

import "time"

// AlertKind names the security event an alert is raised for.
type AlertKind string

const (
	AlertKindLockout  AlertKind = "lockout"
	AlertKindMismatch AlertKind = "mismatch"
	AlertKindVerified AlertKind = "verified"
)

func (k AlertKind) String() string {
	return string(k)
}

// Template is an email subject and HTML body rendered with html/template.
type Template struct {
	Subject string
	Body    string
}

// SecurityAlert is a second factor event addressed to one identity.
type SecurityAlert struct {
	Kind       AlertKind
	IdentityID string
	Email      string
	OccurredAt time.Time
}
