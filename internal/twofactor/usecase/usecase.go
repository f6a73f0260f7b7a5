package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/samber/lo"
	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/pkg/goroutine"
	"github.com/shandysiswandi/goshen/internal/pkg/hash"
	"github.com/shandysiswandi/goshen/internal/pkg/idempotency"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/session"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type SecurityEvent struct {
	Kind       string
	IdentityID string
	Email      string
	OwnerID    string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishSecurityEvent(ctx context.Context, ev SecurityEvent) error
}

type repoMail interface {
	SendPin(ctx context.Context, to, pin string, ttl time.Duration) error
}

type repoDB interface {
	GetOTP(ctx context.Context, identityID string) (*entity.OTPRecord, error)
	UpsertOTP(ctx context.Context, rec entity.OTPRecord) error
	MarkOTPVerified(ctx context.Context, identityID string, now time.Time) error
	IncrementOTPAttempts(ctx context.Context, identityID string, now time.Time, p entity.Policy) (int, error)
	ResetOTPVerified(ctx context.Context, identityID string) error
}

type counters struct {
	issued   metric.Int64Counter
	verified metric.Int64Counter
	failed   metric.Int64Counter
	lockout  metric.Int64Counter
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	idemp         idempotency.Idempotency
	revoker       session.Revoker
	cfg           config.Config
	hmac          hash.Hash
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
	goroutine     *goroutine.Manager
	counters      counters
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Idempotency   idempotency.Idempotency
	Revoker       session.Revoker
	Config        config.Config
	HMAC          hash.Hash
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("twofactor.usecase")

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		idemp:         dep.Idempotency,
		revoker:       dep.Revoker,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
		counters: counters{
			issued:   newCounter(meter, "twofactor.pin.issued", "PINs issued and delivered"),
			verified: newCounter(meter, "twofactor.pin.verified", "successful PIN verifications"),
			failed:   newCounter(meter, "twofactor.pin.failed", "incorrect PIN submissions"),
			lockout:  newCounter(meter, "twofactor.lockout", "identities locked after too many failures"),
		},
	}
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Warn("failed to create counter, using noop", "counter", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

// policy reads the limits on every call so config reloads apply to the next request.
func (s *Usecase) policy() entity.Policy {
	def := entity.DefaultPolicy()
	return entity.Policy{
		PinTTL:      lo.CoalesceOrEmpty(s.cfg.GetMinute("modules.twofactor.pin_ttl_minutes"), def.PinTTL),
		MaxAttempts: lo.CoalesceOrEmpty(s.cfg.GetInt("modules.twofactor.max_attempts"), def.MaxAttempts),
		Lockout:     lo.CoalesceOrEmpty(s.cfg.GetMinute("modules.twofactor.lockout_minutes"), def.Lockout),
	}
}

func (s *Usecase) routes() entity.Routes {
	def := entity.DefaultRoutes()
	return entity.Routes{
		Home:       lo.CoalesceOrEmpty(s.cfg.GetString("gate.home_path"), def.Home),
		Account:    lo.CoalesceOrEmpty(s.cfg.GetString("gate.account_prefix"), def.Account),
		Admin:      lo.CoalesceOrEmpty(s.cfg.GetString("gate.admin_prefix"), def.Admin),
		AdminLogin: lo.CoalesceOrEmpty(s.cfg.GetString("gate.admin_login_path"), def.AdminLogin),
		Auth:       lo.CoalesceOrEmpty(s.cfg.GetString("gate.auth_prefix"), def.Auth),
		Login:      lo.CoalesceOrEmpty(s.cfg.GetString("gate.login_path"), def.Login),
		VerifyStep: lo.CoalesceOrEmpty(s.cfg.GetString("gate.verify_path"), def.VerifyStep),
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.IdentityID() == "" {
		return nil, errUnauthenticated()
	}
	return clm, nil
}

// publishAsync sends a security event without holding up the request.
func (s *Usecase) publishAsync(ctx context.Context, ev SecurityEvent) {
	ctx = context.WithoutCancel(ctx)
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSecurityEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish security event", "kind", ev.Kind, "identity_id", ev.IdentityID, "error", err)
			return err
		}
		return nil
	})
}

func errUnauthenticated() error {
	return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized,
		goerror.WithCause(entity.ErrUnauthenticated))
}
