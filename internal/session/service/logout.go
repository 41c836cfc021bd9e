package service

import (
	"context"
	"errors"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
	"github.com/tabletally/tabletally/internal/session/store"
	"github.com/tabletally/tabletally/pkg/cryptox"
	"github.com/tabletally/tabletally/pkg/slogx"
)

// Logout revokes whichever credentials the caller still holds. Both
// arguments are optional; an empty string skips that side.
//
// The access token is parsed without an expiry check, since logging out with
// a token seconds from expiry must still denylist it. An unknown or
// already-revoked refresh secret is silently ignored, so repeating a logout
// never errors.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshOpaque string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if accessToken != "" {
		claims, err := s.Verifier.Verify(accessToken)
		if err != nil {
			return ErrTokenMalformed
		}
		if claims.ID == "" || claims.ExpiresAt == nil {
			return ErrTokenMalformed
		}

		entry := domain.DenylistEntry{
			ID:        claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
			CreatedAt: now,
		}
		if err := s.Store.Denylist().InsertDenylistEntry(ctx, entry); err != nil {
			return err
		}
	}

	if refreshOpaque != "" {
		fp := cryptox.FingerprintToken(refreshOpaque)
		if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			l.Debug("logout with unknown or already-revoked refresh token")
		}
	}

	return nil
}

// LogoutAll revokes every live refresh token belonging to a principal.
// Outstanding access tokens keep working until they expire; only a
// token-by-token logout can denylist those.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
}
