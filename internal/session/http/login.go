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

// LoginHandler serves POST /v1/session.
// Exchanges staff credentials for an access/refresh token pair.
type LoginHandler struct {
	SessionService *service.SessionService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	pair, err := h.SessionService.Login(ctx, username, req.Password, provenance(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error(), "")
		default:
			log.Error("login failed", "err", err)
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

// provenance captures where a session request came from. Stored alongside
// the refresh token for audit.
func provenance(r *http.Request) service.Provenance {
	return service.Provenance{
		ClientIP:  httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
