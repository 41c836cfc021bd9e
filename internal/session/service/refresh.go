package service

import (
	"context"
	"errors"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
	"github.com/tabletally/tabletally/internal/session/store"
	"github.com/tabletally/tabletally/pkg/cryptox"
)

// Refresh exchanges a valid opaque refresh secret for a brand-new
// access+refresh pair, retiring the old row in the same transaction so every
// refresh token is single-use.
//
// Two concurrent calls with the same secret cannot both succeed: the revoke
// inside the transaction only matches a not-yet-revoked row, so the loser
// observes the flip and fails with ErrRefreshExpired without a usable pair.
func (s *SessionService) Refresh(
	ctx context.Context,
	refreshOpaque string,
	prov Provenance,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if !rt.Usable(now) {
		return nil, ErrRefreshExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrRefreshExpired
	}

	// Role is re-read from the principal, not copied from the old token, so
	// a role change takes effect at the next rotation.
	pair, next, err := s.buildPair(u, prov, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// A concurrent rotation got here first.
				return ErrRefreshExpired
			}
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, next)
	}); err != nil {
		return nil, err
	}

	return pair, nil
}
