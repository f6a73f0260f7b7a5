package inbound

import (
	"context"

	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
)

type uc interface {
	IssuePIN(ctx context.Context) (*usecase.IssuePINOutput, error)
	VerifyPIN(ctx context.Context, in usecase.VerifyPINInput) (*usecase.VerifyPINOutput, error)
	SignOut(ctx context.Context) error
	Status(ctx context.Context) (*usecase.StatusOutput, error)

	GatePage(ctx context.Context, in usecase.GatePageInput) usecase.GatePageOutput
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Second factor (need authenticated)
	r.POST("/api/v1/auth/2fa/send", end.IssuePIN)
	r.POST("/api/v1/auth/2fa/verify", end.VerifyPIN)
	r.GET("/api/v1/auth/2fa/status", end.Status)
	//
	r.POST("/api/v1/auth/logout", end.SignOut)
}
