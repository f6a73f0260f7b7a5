package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/clock"
	"github.com/shandysiswandi/goshen/internal/pkg/goerror"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/pkg/uid"
	"github.com/shandysiswandi/goshen/internal/twofactor/entity"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeUC struct {
	verifyErr error
	lastPin   string
	signedOut string
}

func (f *fakeUC) IssuePIN(ctx context.Context) (*usecase.IssuePINOutput, error) {
	return &usecase.IssuePINOutput{ExpiresAt: t0.Add(5 * time.Minute)}, nil
}

func (f *fakeUC) VerifyPIN(_ context.Context, in usecase.VerifyPINInput) (*usecase.VerifyPINOutput, error) {
	f.lastPin = in.Pin
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &usecase.VerifyPINOutput{Verified: true}, nil
}

func (f *fakeUC) SignOut(ctx context.Context) error {
	f.signedOut = jwt.GetAuth(ctx).IdentityID()
	return nil
}

func (f *fakeUC) Status(context.Context) (*usecase.StatusOutput, error) {
	return &usecase.StatusOutput{Verified: true}, nil
}

func (f *fakeUC) GatePage(ctx context.Context, in usecase.GatePageInput) usecase.GatePageOutput {
	class := entity.DefaultRoutes().Classify(in.Path)
	if class == entity.RouteAccount && jwt.GetAuth(ctx) == nil {
		return usecase.GatePageOutput{Class: class, Redirect: "/auth/login"}
	}
	return usecase.GatePageOutput{Class: class}
}

type setup struct {
	handler http.Handler
	uc      *fakeUC
	token   string
}

func newSetup(t *testing.T, upstream string) setup {
	t.Helper()

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		TTL:    time.Hour,
		Clock:  clock.New(),
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	token, err := signer.Generate(jwt.Identity{ID: "user-1", Email: "user1@goshen.test"})
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		UUID:       uid.NewUUID(),
		JWT:        signer,
		Instrument: instrument.NewNoop(),
	})

	uc := &fakeUC{}
	RegisterHTTPEndpoint(r, uc)
	require.NoError(t, RegisterPageGate(r, uc, upstream))

	return setup{handler: r, uc: uc, token: token}
}

func (s setup) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHTTP_RequiresSession(t *testing.T) {
	s := newSetup(t, "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/auth/2fa/send"},
		{http.MethodPost, "/api/v1/auth/2fa/verify"},
		{http.MethodGet, "/api/v1/auth/2fa/status"},
		{http.MethodPost, "/api/v1/auth/logout"},
	} {
		rec := s.do(tc.method, tc.path, `{"pin":"1234"}`, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.Equal(t, "Authentication required", body(t, rec)["message"], tc.path)
	}
}

func TestHTTP_IssuePIN(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodPost, "/api/v1/auth/2fa/send", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	out := body(t, rec)
	assert.Equal(t, "A 4-digit PIN has been sent to your email.", out["message"])
	assert.Equal(t, "2026-03-01T10:05:00Z", out["data"].(map[string]any)["expires_at"])
}

func TestHTTP_VerifyPIN(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodPost, "/api/v1/auth/2fa/verify", `{"pin":"4821"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2FA verification successful.", body(t, rec)["message"])
	assert.Equal(t, "4821", s.uc.lastPin)
}

func TestHTTP_VerifyPIN_Incorrect(t *testing.T) {
	s := newSetup(t, "")
	s.uc.verifyErr = goerror.NewBusiness("Incorrect PIN. 2 attempts remaining.", goerror.CodeBadRequest,
		goerror.WithCause(entity.ErrInvalidPin),
		goerror.WithField("remaining_attempts", "2"))

	rec := s.do(http.MethodPost, "/api/v1/auth/2fa/verify", `{"pin":"0000"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := body(t, rec)
	assert.Equal(t, "Incorrect PIN. 2 attempts remaining.", out["message"])
	assert.Equal(t, "2", out["error"].(map[string]any)["remaining_attempts"])
}

func TestHTTP_VerifyPIN_BadBody(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodPost, "/api/v1/auth/2fa/verify", `{"code":"1234"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body(t, rec)["message"])
	assert.Empty(t, s.uc.lastPin)
}

func TestHTTP_Status(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodGet, "/api/v1/auth/2fa/status", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"verified": true, "locked": false}, body(t, rec)["data"])
}

func TestHTTP_SignOut(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodPost, "/api/v1/auth/logout", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Signed out successfully.", body(t, rec)["message"])
	assert.Equal(t, "user-1", s.uc.signedOut)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, router.SessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
}

func TestPageGate_Placeholder(t *testing.T) {
	s := newSetup(t, "")

	rec := s.do(http.MethodGet, "/account", "", false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/account", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"path": "/account", "class": "Account"}, body(t, rec)["data"])

	// session cookie works for pages too
	req := httptest.NewRequest(http.MethodGet, "/account/orders", nil)
	req.AddCookie(&http.Cookie{Name: router.SessionCookie, Value: s.token})
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// only GET and HEAD reach the gate
	rec = s.do(http.MethodPost, "/account", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageGate_Proxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<h1>" + r.URL.Path + "</h1>"))
	}))
	t.Cleanup(upstream.Close)

	s := newSetup(t, upstream.URL)

	rec := s.do(http.MethodGet, "/collections/all", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>/collections/all</h1>", rec.Body.String())

	rec = s.do(http.MethodGet, "/account", "", false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestNewPageGate_InvalidUpstream(t *testing.T) {
	for _, raw := range []string{"localhost:3000", "ftp://files.goshen.test", "http://"} {
		_, err := NewPageGate(&fakeUC{}, raw)
		assert.ErrorIs(t, err, ErrInvalidUpstream, raw)
	}
}
