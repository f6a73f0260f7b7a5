package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/mail"
	"github.com/shandysiswandi/goshen/internal/twofactor/outbound/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type inbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (i *inbox) Send(_ context.Context, msg mail.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

func (i *inbox) Close() error { return nil }

var pinPattern = regexp.MustCompile(`PIN is (\d{4})`)

func (i *inbox) lastPIN(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	require.NotEmpty(t, i.msgs)
	m := pinPattern.FindStringSubmatch(i.msgs[len(i.msgs)-1].TextBody)
	require.Len(t, m, 2)
	return m[1]
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

type client struct {
	t       *testing.T
	baseURL string
	token   string
	http    *http.Client
}

func (c client) do(method, path, body string) (*http.Response, envelope) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.baseURL+path, strings.NewReader(body))
	require.NoError(c.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: c.token})

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &env))
	}

	return resp, env
}

func startApp(t *testing.T, box *inbox) (*App, string) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("goshen"),
		postgres.WithUsername("goshen"),
		postgres.WithPassword("goshen"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rd, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, rd)
	require.NoError(t, err)

	redisURL, err := rd.ConnectionString(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, fmt.Appendf(nil, `
database:
  url: %q
redis:
  url: %q
jwt:
  secret: %q
  ttl_minutes: 60
hash:
  hmac:
    secret: app-test-pin-secret
`, dsn, redisURL, strings.Repeat("j", 64)), 0o600))

	a := newApp(path)
	a.initConfig()
	a.initInstrument()
	a.initLibraries()
	a.initJWT()
	a.initDatabase()
	a.initCache()
	a.mail = box
	a.initMessaging()
	a.initCasbin()
	a.initHTTPServer()
	a.initModules()
	a.initClosers()

	require.NoError(t, db.Migrate(ctx, a.dbConn))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a.Serve(l)

	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(stopCtx)
	})

	return a, "http://" + l.Addr().String()
}

func TestApp_SecondFactorFlow(t *testing.T) {
	box := &inbox{}
	a, baseURL := startApp(t, box)

	token, err := a.jwt.Generate(jwt.Identity{ID: "user-1", Email: "user1@goshen.test"})
	require.NoError(t, err)

	c := client{
		t:       t,
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	resp, _ := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/account", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/2fa", resp.Header.Get("Location"))

	resp, env := c.do(http.MethodPost, "/api/v1/auth/2fa/send", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A 4-digit PIN has been sent to your email.", env.Message)

	pin := box.lastPIN(t)
	wrong := "1000"
	if pin == wrong {
		wrong = "1001"
	}

	resp, env = c.do(http.MethodPost, "/api/v1/auth/2fa/verify", `{"pin":"`+wrong+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Incorrect PIN. 4 attempts remaining.", env.Message)

	resp, env = c.do(http.MethodPost, "/api/v1/auth/2fa/verify", `{"pin":"`+pin+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2FA verification successful.", env.Message)

	resp, env = c.do(http.MethodGet, "/api/v1/auth/2fa/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"verified":true,"locked":false}`, string(env.Data))

	resp, _ = c.do(http.MethodGet, "/auth/2fa", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/account", resp.Header.Get("Location"))

	resp, _ = c.do(http.MethodGet, "/account/orders", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = c.do(http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Signed out successfully.", env.Message)

	resp, _ = c.do(http.MethodGet, "/api/v1/auth/2fa/status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
