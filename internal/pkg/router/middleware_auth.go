package router

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/pkg/session"
	"github.com/shandysiswandi/goshen/internal/pkg/validator"
)

// SessionCookie is the cookie carrying the identity session token for page requests.
const SessionCookie = "session"

var (
	errNoSession      = errors.New("no session token")
	errRevokedSession = errors.New("session was signed out")
)

// sessionIdentity is the part of the claims every request relies on.
type sessionIdentity struct {
	IdentityID string `validate:"notblank,max=128"`
	Email      string `validate:"required,email"`
}

type sessionResolver struct {
	verifier  jwt.JWT
	revoker   session.Revoker
	validator validator.Validator
}

// token reads the bearer token, falling back to the session cookie.
func token(r *http.Request) string {
	if p := strings.Fields(r.Header.Get("Authorization")); len(p) == 2 && strings.EqualFold(p[0], "Bearer") {
		return p[1]
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func (s sessionResolver) resolve(r *http.Request) (jwt.Claims, error) {
	raw := token(r)
	if raw == "" {
		return jwt.Claims{}, errNoSession
	}

	claims, err := s.verifier.Verify(raw)
	if err != nil {
		return jwt.Claims{}, err
	}

	if s.validator != nil {
		if err := s.validator.Validate(sessionIdentity{IdentityID: claims.IdentityID(), Email: claims.Email}); err != nil {
			return jwt.Claims{}, err
		}
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return jwt.Claims{}, err
		}
		if revoked {
			return jwt.Claims{}, errRevokedSession
		}
	}

	return claims, nil
}

// middlewareAuthentication rejects API requests without a valid session,
// except for the allowlisted public endpoints.
func middlewareAuthentication(res sessionResolver, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := publicEndpoints[r.Method][matchedRoutePath(r)]; skip {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := res.resolve(r)
			if err != nil {
				if !errors.Is(err, errNoSession) {
					slog.InfoContext(r.Context(), "session rejected", "path", r.URL.Path, "error", err)
				}
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

// middlewareSession attaches the session to page requests when one is valid
// and lets the request through either way; page rules decide what to do.
func middlewareSession(res sessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := res.resolve(r)
			if err != nil {
				if !errors.Is(err, errNoSession) {
					slog.DebugContext(r.Context(), "page session ignored", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
