package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/messaging"
	"github.com/shandysiswandi/goshen/internal/shared/event"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishSecurityEvent(ctx context.Context, ev usecase.SecurityEvent) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.mq").Start(ctx, "PublishSecurityEvent")
	defer span.End()

	span.SetAttributes(attribute.String("event.kind", ev.Kind))

	body, err := json.Marshal(event.TwoFactorSecurityMessage{
		Kind:       ev.Kind,
		IdentityID: ev.IdentityID,
		Email:      ev.Email,
		OwnerID:    ev.OwnerID,
		OccurredAt: ev.OccurredAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TwoFactorSecurityDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ev.IdentityID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
