package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJWT struct {
	tokens map[string]jwt.Claims
}

func (f fakeJWT) Generate(jwt.Identity) (string, error) { return "", nil }

func (f fakeJWT) Verify(token string) (jwt.Claims, error) {
	c, ok := f.tokens[token]
	if !ok {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return c, nil
}

type fakeRevoker struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (f fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return f.revoked[id], f.err
}

type cookieResp struct{}

func (cookieResp) Message() string { return "Signed out successfully." }
func (cookieResp) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: SessionCookie, Value: "", MaxAge: -1, Path: "/"}}
}

func claims(id, email, jti string) jwt.Claims {
	c := jwt.Claims{Email: email}
	c.Subject = id
	c.ID = jti
	return c
}

func newTestRouter(t *testing.T, rev fakeRevoker) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  maintenance:
    endpoints: "/api/v1/down"
instrument:
  log_mask_fields: "pin,authorization"
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	r := NewRouter(Config{
		Config: cfg,
		JWT: fakeJWT{tokens: map[string]jwt.Claims{
			"good":    claims("u-1", "ada@goshen.test", "jti-1"),
			"revoked": claims("u-2", "bob@goshen.test", "jti-2"),
			"noemail": claims("u-3", "", "jti-3"),
		}},
		Revoker:    rev,
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})

	r.GET("/health", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })
	r.GET("/api/v1/me", func(req *Request) (any, error) {
		return map[string]string{"id": req.Auth().IdentityID()}, nil
	})
	r.POST("/api/v1/pin", func(req *Request) (any, error) {
		var body struct {
			PIN string `json:"pin"`
		}
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		return nil, goerror.NewBusiness("Incorrect PIN. 4 attempts remaining.", goerror.CodeBadRequest,
			goerror.WithField("remaining_attempts", "4"))
	})
	r.POST("/api/v1/logout", func(*Request) (any, error) { return cookieResp{}, nil })
	r.POST("/api/v1/boom", func(*Request) (any, error) { return nil, errors.New("db down") })
	r.GET("/api/v1/down", func(*Request) (any, error) { return nil, nil })
	r.Pages(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := "guest"
		if c := jwt.GetAuth(req.Context()); c != nil {
			id = c.IdentityID()
		}
		w.Header().Set("X-Identity", id)
		w.WriteHeader(http.StatusOK)
	}))

	return r
}

func serve(r http.Handler, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t, fakeRevoker{revoked: map[string]bool{"jti-2": true}})

	rec := serve(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(instrument.CorrelationHeader))

	for name, mutate := range map[string]func(*http.Request){
		"missing":  nil,
		"invalid":  bearer("forged"),
		"revoked":  bearer("revoked"),
		"no email": bearer("noemail"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(r, http.MethodGet, "/api/v1/me", "", mutate)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Authentication required", decode(t, rec)["message"])
		})
	}

	rec = serve(r, http.MethodGet, "/api/v1/me", "", bearer("good"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": "u-1"}, decode(t, rec)["data"])

	rec = serve(r, http.MethodGet, "/api/v1/me", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RevocationStoreFailureFailsClosed(t *testing.T) {
	r := newTestRouter(t, fakeRevoker{err: errors.New("redis down")})

	rec := serve(r, http.MethodGet, "/api/v1/me", "", bearer("good"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Codecs(t *testing.T) {
	r := newTestRouter(t, fakeRevoker{})

	rec := serve(r, http.MethodPost, "/api/v1/pin", `{"pin":"1234"}`, bearer("good"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Incorrect PIN. 4 attempts remaining.", body["message"])
	assert.Equal(t, map[string]any{"remaining_attempts": "4"}, body["error"])

	rec = serve(r, http.MethodPost, "/api/v1/pin", `{"pin":"1234","extra":1}`, bearer("good"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode(t, rec)["message"])

	rec = serve(r, http.MethodPost, "/api/v1/boom", "", bearer("good"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["message"])

	rec = serve(r, http.MethodPost, "/api/v1/logout", "", bearer("good"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Signed out successfully.", decode(t, rec)["message"])
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookie+"=;")

	rec = serve(r, http.MethodGet, "/api/v1/down", "", bearer("good"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Pages(t *testing.T) {
	r := newTestRouter(t, fakeRevoker{revoked: map[string]bool{"jti-2": true}})

	rec := serve(r, http.MethodGet, "/collections/summer", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "guest", rec.Header().Get("X-Identity"))

	rec = serve(r, http.MethodGet, "/account", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	})
	assert.Equal(t, "u-1", rec.Header().Get("X-Identity"))

	rec = serve(r, http.MethodGet, "/account", "", bearer("revoked"))
	assert.Equal(t, "guest", rec.Header().Get("X-Identity"))

	rec = serve(r, http.MethodPost, "/account", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), nil, mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "h"}, order)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
