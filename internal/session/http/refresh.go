package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tabletally/tabletally/internal/session/service"
	"github.com/tabletally/tabletally/pkg/httpx"
	"github.com/tabletally/tabletally/pkg/slogx"
)

// RefreshHandler serves POST /v1/session/refresh.
// Rotates a single-use refresh token into a fresh pair.
type RefreshHandler struct {
	SessionService *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	opaque := strings.TrimSpace(req.RefreshToken)
	if opaque == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.SessionService.Refresh(ctx, opaque, provenance(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshInvalid):
			httpx.WriteError(w, http.StatusUnauthorized, service.ErrRefreshInvalid.Error(), "")
		case errors.Is(err, service.ErrRefreshExpired):
			httpx.WriteError(w, http.StatusUnauthorized, service.ErrRefreshExpired.Error(), "")
		default:
			log.Error("refresh failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}
