package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goshen/internal/notification"
	"github.com/shandysiswandi/goshen/internal/twofactor"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofactor.enabled") {
		if err := twofactor.New(twofactor.Dependency{
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Enforcer:    a.casbin,
			Router:      a.router,
			Idempotency: a.idemp,
			Revoker:     a.revoker,
			Messaging:   a.messaging,
			Mail:        a.mail,
			Config:      a.config,
			Instrument:  a.ins,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
