package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DriverSMTP delivers through an SMTP relay.
	DriverSMTP = "smtp"
	// DriverLog only logs the message.
	DriverLog = "log"
)

var (
	// ErrUnknownDriver indicates an unsupported mail driver.
	ErrUnknownDriver = errors.New("mail: unknown driver")
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
)

// Message represents an email payload.
type Message struct {
	// From overrides the configured default sender.
	From string
	To   []string
	Cc   []string
	Bcc  []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body; both bodies yield multipart/alternative.
	HTMLBody string
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(driver string, cfg SMTPConfig) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP:
		return NewSMTP(cfg)
	case DriverLog, "":
		return NewLog(cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
