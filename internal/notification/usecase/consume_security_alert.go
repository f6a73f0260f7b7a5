package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goshen/internal/notification/entity"
)

type ConsumeSecurityAlertInput struct {
	Kind       string    `validate:"required"`
	IdentityID string    `validate:"notblank,max=128"`
	Email      string    `validate:"required,email"`
	OccurredAt time.Time `validate:"required"`
}

// ConsumeSecurityAlert mails the identity when the event kind has a template.
// Bad payloads are logged and dropped so they are not redelivered.
func (s *Usecase) ConsumeSecurityAlert(ctx context.Context, in ConsumeSecurityAlertInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeSecurityAlert")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	alert := entity.SecurityAlert{
		Kind:       entity.AlertKind(in.Kind),
		IdentityID: in.IdentityID,
		Email:      in.Email,
		OccurredAt: in.OccurredAt.UTC(),
	}

	tpl, ok := entity.Templates[alert.Kind]
	if !ok {
		slog.DebugContext(ctx, "security alert has no email", "kind", alert.Kind.String(), "identity_id", alert.IdentityID)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["occurred_at"] = alert.OccurredAt.Format("2 Jan 2006 15:04 MST")
	lockout := lo.CoalesceOrEmpty(s.cfg.GetMinute("modules.twofactor.lockout_minutes"), 15*time.Minute)
	data["lockout_minutes"] = strconv.Itoa(int(lockout.Minutes()))

	body, err := s.renderTemplate("body", tpl.Body, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "kind", alert.Kind.String(), "error", err)
		return nil
	}

	if err := s.repoMail.SendAlert(ctx, alert.Kind.String(), alert.Email, tpl.Subject, body); err != nil {
		slog.ErrorContext(ctx, "failed to send security alert", "kind", alert.Kind.String(), "identity_id", alert.IdentityID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "security alert sent", "kind", alert.Kind.String(), "identity_id", alert.IdentityID)

	return nil
}
