// Package service implements the session lifecycle: issuing access+refresh
// pairs, single-use refresh rotation, denylist-backed revocation, and the
// background sweep of expired rows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
	"github.com/tabletally/tabletally/internal/session/store"
	"github.com/tabletally/tabletally/pkg/cryptox"
	"github.com/tabletally/tabletally/pkg/idx"
	"github.com/tabletally/tabletally/pkg/jwtx"
	"github.com/tabletally/tabletally/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrRefreshInvalid     = errors.New("invalid_refresh_token")
	ErrRefreshExpired     = errors.New("expired_refresh_token")
	ErrTokenMalformed     = errors.New("malformed_token")
)

// Provenance is advisory request metadata recorded on refresh token rows.
type Provenance struct {
	ClientIP  string
	UserAgent string
}

// SessionService issues, rotates and revokes session token pairs.
type SessionService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login authenticates a principal and issues a fresh access+refresh pair.
//
// Unknown username, suspended account and wrong password are deliberately
// collapsed into a single ErrInvalidCredentials so a caller cannot probe
// which part failed.
func (s *SessionService) Login(
	ctx context.Context,
	username, password string,
	prov Provenance,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.Active {
		l.Info("login rejected for suspended account", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password verification failed", "user_id", u.ID)
			return nil, ErrInvalidCredentials
		}
		// Unparseable stored hash is an operational problem, not a
		// credential one.
		return nil, fmt.Errorf("verify password: %w", err)
	}

	pair, refresh, err := s.buildPair(u, prov, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return pair, nil
}

// buildPair signs a new access token and prepares the matching refresh row.
// The caller decides how the row is persisted (directly on login, inside the
// rotation transaction on refresh).
func (s *SessionService) buildPair(
	u domain.User,
	prov Provenance,
	now time.Time,
) (*domain.TokenPair, domain.RefreshToken, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Role, s.Issuer, s.AccessTTL, now)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, domain.RefreshToken{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, domain.RefreshToken{}, err
	}

	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ClientIP:  prov.ClientIP,
		UserAgent: prov.UserAgent,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}

	return pair, refresh, nil
}
