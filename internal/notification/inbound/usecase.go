package inbound

import (
	"context"

	"github.com/shandysiswandi/goshen/internal/notification/usecase"
)

type uc interface {
	ConsumeSecurityAlert(ctx context.Context, in usecase.ConsumeSecurityAlertInput) error
}
