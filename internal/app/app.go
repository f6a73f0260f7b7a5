package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/goroutine"
	"github.com/shandysiswandi/goshen/internal/pkg/hash"
	"github.com/shandysiswandi/goshen/internal/pkg/idempotency"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/mail"
	"github.com/shandysiswandi/goshen/internal/pkg/messaging"
	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/pkg/session"
	"github.com/shandysiswandi/goshen/internal/pkg/uid"
	"github.com/shandysiswandi/goshen/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     config.Config
	ins        instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn redis.UniversalClient
	idemp     idempotency.Idempotency
	revoker   session.Revoker
	mail      mail.Mail
	messaging messaging.Messaging
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
// An empty configPath falls back to CONFIG_PATH or ./config/config.yaml.
func New(configPath string) *App {
	app := newApp(configPath)

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func newApp(configPath string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}
}
