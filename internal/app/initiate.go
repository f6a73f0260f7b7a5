package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	nsq "github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/gate"
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
	"google.golang.org/api/option"
)

// defaults keeps the service bootable with a partial config file.
var defaults = map[string]any{
	"app.name":                            "Goshen",
	"app.server.http.address":             ":8080",
	"modules.twofactor.enabled":           true,
	"modules.notification.enabled":        true,
	"modules.notification.consumer_names": "twofactor_security_notification",
	"gate.admin_roles":                    "admin",
	"messaging.driver":                    messaging.DriverMemory,
	"mail.driver":                         mail.DriverLog,
	"instrument.log_mask_fields":          "pin,authorization,cookie",
}

func (a *App) initConfig() {
	path := a.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path, config.WithDefaults(defaults), config.WithEnv("GOSHEN"))
	if err != nil {
		slog.Error("failed to init config", "path", path, "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	hmac, err := hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	if err != nil {
		slog.Error("failed to init hmac pin hasher", "error", err)
		os.Exit(1)
	}
	a.hmac = hmac

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

// connectBackoff retries startup pings while dependencies come up.
func connectBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxDuration(15*time.Second, b)
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")
	if config.MaxConns <= 0 {
		config.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := retry.Do(a.ctx, connectBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("DB not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := retry.Do(a.ctx, connectBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb, a.config.GetString("redis.idempotency_prefix"))
	a.revoker = session.NewRedisRevoker(rdb, a.clock)
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	m, err := mail.NewFromDriver(driver, mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.mail = m
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig:       a.nsqConfig("messaging.nsq.producer_config"),
			ConsumerConfig:       a.nsqConfig("messaging.nsq.consumer_config"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: a.pubSubOptions(),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// nsqConfig reads one nsq.Config block; zero values keep the library defaults.
func (a *App) nsqConfig(prefix string) *nsq.Config {
	cfg := nsq.NewConfig()
	if v := a.config.GetInt(prefix + ".max_in_flight"); v > 0 {
		cfg.MaxInFlight = v
	}
	if v := a.config.GetUint16(prefix + ".max_attempts"); v > 0 {
		cfg.MaxAttempts = v
	}

	durations := map[string]*time.Duration{
		"dial_timeout_seconds":          &cfg.DialTimeout,
		"read_timeout_seconds":          &cfg.ReadTimeout,
		"write_timeout_seconds":         &cfg.WriteTimeout,
		"lookupd_poll_interval_seconds": &cfg.LookupdPollInterval,
		"default_requeue_delay_seconds": &cfg.DefaultRequeueDelay,
		"max_requeue_delay_seconds":     &cfg.MaxRequeueDelay,
	}
	for key, dst := range durations {
		if v := a.config.GetSecond(prefix + "." + key); v > 0 {
			*dst = v
		}
	}

	return cfg
}

func (a *App) pubSubOptions() []option.ClientOption {
	var opts []option.ClientOption
	if endpoint := a.config.GetString("messaging.pubsub.endpoint"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if a.config.GetBool("messaging.pubsub.without_authentication") {
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}

func (a *App) initCasbin() {
	e, err := gate.NewPolicy(a.config.GetArray("gate.admin_roles"))
	if err != nil {
		slog.Error("failed to init casbin admin policy", "error", err)
		os.Exit(1)
	}

	a.casbin = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Revoker:    a.revoker,
		Validator:  a.validator,
		Instrument: a.ins,
	})

	a.router.GET("/health", func(r *router.Request) (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"database": "ok", "redis": "ok"}
		if err := a.dbConn.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check database failed", "error", err)
			status["database"] = "unavailable"
		}
		if err := a.cacheConn.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "health check redis failed", "error", err)
			status["redis"] = "unavailable"
		}

		return status, nil
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              strings.TrimSpace(a.config.GetString("app.server.http.address")),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
