package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
)

var ErrInvalidUpstream = errors.New("inbound: upstream url must be absolute http(s)")

// PageGate decides every page request before it reaches the storefront.
type PageGate struct {
	uc       uc
	upstream http.Handler
}

// RegisterPageGate serves unmatched GET and HEAD requests through the gate.
// Allowed requests are proxied to upstreamURL, or answered with a JSON
// placeholder when it is empty.
func RegisterPageGate(r *router.Router, uc uc, upstreamURL string) error {
	g, err := NewPageGate(uc, upstreamURL)
	if err != nil {
		return err
	}

	r.Pages(g)
	return nil
}

func NewPageGate(uc uc, upstreamURL string) (*PageGate, error) {
	g := &PageGate{uc: uc, upstream: http.HandlerFunc(placeholder)}

	upstreamURL = strings.TrimSpace(upstreamURL)
	if upstreamURL == "" {
		return g, nil
	}

	u, err := url.Parse(upstreamURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidUpstream
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.ErrorContext(r.Context(), "page upstream failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}
	g.upstream = proxy

	return g, nil
}

func (g *PageGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out := g.uc.GatePage(r.Context(), usecase.GatePageInput{Path: r.URL.Path})
	if !out.Allowed() {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}

	g.upstream.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), pageClassKey{}, out.Class.String())))
}

func placeholder(w http.ResponseWriter, r *http.Request) {
	class := "Public"
	if out, ok := r.Context().Value(pageClassKey{}).(string); ok {
		class = out
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": "page allowed",
		"data":    PageAllowedResponse{Path: r.URL.Path, Class: class},
	}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode page placeholder", "error", err)
	}
}

type pageClassKey struct{}
