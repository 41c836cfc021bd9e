package http

import (
	"net/http"
	"time"

	"github.com/tabletally/tabletally/pkg/httpx"
)

// SessionInfoHandler serves GET /v1/session.
// Introspects the bearer token the caller authenticated with.
type SessionInfoHandler struct{}

type sessionInfoResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *SessionInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		// AuthnMiddleware always runs first; reaching here without claims
		// means a route wiring mistake.
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	resp := sessionInfoResponse{
		UserID:  claims.Subject,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
