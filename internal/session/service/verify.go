package service

import (
	"context"
	"fmt"

	"github.com/tabletally/tabletally/internal/session/store"
	"github.com/tabletally/tabletally/pkg/jwtx"
	"github.com/tabletally/tabletally/pkg/slogx"
)

// TokenVerifier is the full access-token check run on every protected
// request: signature, expiry, then denylist membership. A token passes only
// when all three hold.
type TokenVerifier struct {
	Verifier jwtx.Verifier
	Store    store.Store
}

// VerifyAccessToken validates raw and returns its claims. Every
// authentication failure (malformed, bad signature, expired, denylisted)
// collapses into ErrUnauthenticated; callers and clients cannot tell the
// causes apart. Storage failures are returned as-is so operational errors
// stay visible, and they still deny access.
func (v *TokenVerifier) VerifyAccessToken(ctx context.Context, raw string) (jwtx.Claims, error) {
	l := slogx.FromContext(ctx)

	claims, err := v.Verifier.Verify(raw)
	if err != nil {
		l.Debug("access token failed signature check", "err", err)
		return jwtx.Claims{}, ErrUnauthenticated
	}

	if err := claims.ValidateExpiry(); err != nil {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	listed, err := v.Store.Denylist().IsDenylisted(ctx, claims.ID)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("denylist lookup: %w", err)
	}
	if listed {
		l.Debug("access token is denylisted", "jti", claims.ID)
		return jwtx.Claims{}, ErrUnauthenticated
	}

	return claims, nil
}
