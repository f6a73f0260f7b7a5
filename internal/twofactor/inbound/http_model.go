package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/goshen/internal/pkg/router"
)

type IssuePINResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (IssuePINResponse) Message() string {
	return "A 4-digit PIN has been sent to your email."
}

type VerifyPINRequest struct {
	Pin string `json:"pin"`
}

type VerifyPINResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyPINResponse) Message() string {
	return "2FA verification successful."
}

type StatusResponse struct {
	Verified bool `json:"verified"`
	Locked   bool `json:"locked"`
}

type SignOutResponse struct {
	secure bool
}

func (SignOutResponse) Message() string {
	return "Signed out successfully."
}

func (s SignOutResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{{
		Name:     router.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}}
}

type PageAllowedResponse struct {
	Path  string `json:"path"`
	Class string `json:"class"`
}
