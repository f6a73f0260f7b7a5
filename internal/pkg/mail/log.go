package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation that writes messages to the default logger.
type Log struct {
	defaultFrom string
}

// NewLog returns a logging mailer.
func NewLog(from string) *Log {
	return &Log{defaultFrom: from}
}

// Send logs msg at debug level with the body under key "body".
func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.recipients()) == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = l.defaultFrom
	}

	slog.DebugContext(ctx, "mail sent to log",
		"from", from,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)

	return nil
}

func (l *Log) Close() error {
	return nil
}
