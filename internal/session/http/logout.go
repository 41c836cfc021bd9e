package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tabletally/tabletally/internal/session/service"
	"github.com/tabletally/tabletally/pkg/httpx"
	"github.com/tabletally/tabletally/pkg/slogx"
)

// LogoutHandler serves POST /v1/session/logout.
// The bearer header and the body are both optional: the bearer token is
// denylisted for the rest of its lifetime, the refresh token is revoked.
// Repeating a logout is not an error.
type LogoutHandler struct {
	SessionService *service.SessionService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accessToken, _ := httpx.BearerToken(r)

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	err := h.SessionService.Logout(ctx, accessToken, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenMalformed):
			httpx.WriteError(w, http.StatusBadRequest, service.ErrTokenMalformed.Error(), "bearer token could not be parsed")
		default:
			log.Error("logout failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
