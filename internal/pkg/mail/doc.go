// Package mail sends transactional email (PIN codes, security alerts).
//
// Use cases depend on the Mail interface only. SMTP delivers real mail; the
// log driver writes the message to slog and is meant for local development.
package mail
