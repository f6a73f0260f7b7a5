package inbound

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/goshen/internal/pkg/router"
	"github.com/shandysiswandi/goshen/internal/twofactor/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the second factor workflow.
type HTTPEndpoint struct {
	uc uc
}

// IssuePIN emails a fresh PIN to the session's address.
func (h *HTTPEndpoint) IssuePIN(r *router.Request) (any, error) {
	resp, err := h.uc.IssuePIN(r.Context())
	if err != nil {
		return nil, err
	}

	return IssuePINResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyPIN checks a candidate PIN and marks the session verified.
func (h *HTTPEndpoint) VerifyPIN(r *router.Request) (any, error) {
	var req VerifyPINRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyPIN(r.Context(), usecase.VerifyPINInput{Pin: req.Pin})
	if err != nil {
		return nil, err
	}

	return VerifyPINResponse{Verified: resp.Verified}, nil
}

func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{Verified: resp.Verified, Locked: resp.Locked}, nil
}

// SignOut drops the verified flag, revokes the session and clears its cookie.
func (h *HTTPEndpoint) SignOut(r *router.Request) (any, error) {
	if err := h.uc.SignOut(r.Context()); err != nil {
		return nil, err
	}

	return SignOutResponse{secure: isSecure(r.Request)}, nil
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
