package email

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// SendPin delivers the PIN to the identity's address.
func (m *Mail) SendPin(ctx context.Context, to, pin string, ttl time.Duration) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.email").Start(ctx, "SendPin")
	defer span.End()

	minutes := int(ttl.Minutes())
	if err := m.client.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: "Your verification PIN",
		TextBody: fmt.Sprintf(
			"Your verification PIN is %s.\n\nIt expires in %d minutes. If you did not try to sign in, you can ignore this email.",
			pin, minutes,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Your verification PIN is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not try to sign in, you can ignore this email.</p>",
			pin, minutes,
		),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
