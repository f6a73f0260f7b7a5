package email

import (
	"context"

	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// SendAlert mails a rendered security alert to a single identity.
func (m *Mail) SendAlert(ctx context.Context, kind, to, subject, htmlBody string) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendAlert")
	defer span.End()

	span.SetAttributes(attribute.String("alert.kind", kind))

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: htmlBody,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
