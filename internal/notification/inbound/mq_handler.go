package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goshen/internal/notification/usecase"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/messaging"
	"github.com/shandysiswandi/goshen/internal/pkg/uid"
	"github.com/shandysiswandi/goshen/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) SecurityAlertNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "SecurityAlertNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: twofactor security notification", "msg_body", string(body))

	var payload event.TwoFactorSecurityMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of twofactor security notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeSecurityAlert(ctx, usecase.ConsumeSecurityAlertInput{
		Kind:       payload.Kind,
		IdentityID: payload.IdentityID,
		Email:      payload.Email,
		OccurredAt: time.Unix(payload.OccurredAt, 0),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume twofactor security", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
