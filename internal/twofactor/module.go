package twofactor

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/goroutine"
	"github.com/shandysiswandi/goshen/internal/pkg/hash"
	"github.com/shandysiswandi/goshen/internal/pkg/idempotency"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/mail"
	"github.com/shandysiswandi/goshen/internal/pkg/messaging"
	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/pkg/session"
	"github.com/shandysiswandi/goshen/internal/pkg/validator"
	"github.com/shandysiswandi/goshen/internal/twofactor/inbound"
	"github.com/shandysiswandi/goshen/internal/twofactor/outbound/db"
	"github.com/shandysiswandi/goshen/internal/twofactor/outbound/email"
	"github.com/shandysiswandi/goshen/internal/twofactor/outbound/mq"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Enforcer    *casbin.Enforcer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Revoker     session.Revoker            `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:      email.New(dep.Mail, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Revoker:       dep.Revoker,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return inbound.RegisterPageGate(dep.Router, uc, dep.Config.GetString("gate.upstream_url"))
}
