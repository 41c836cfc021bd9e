package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
	"github.com/tabletally/tabletally/internal/session/store"
)

type refreshTokensRepo struct {
	q queryer
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, client_ip, user_agent, issued_at, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ClientIP, t.UserAgent, t.IssuedAt, t.ExpiresAt, t.Revoked,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, client_ip, user_agent, issued_at, expires_at, revoked
		FROM refresh_tokens
		WHERE token_hash = ?`, hash,
	).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ClientIP,
		&t.UserAgent,
		&t.IssuedAt,
		&t.ExpiresAt,
		&t.Revoked,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

// RevokeRefreshToken only touches rows still marked usable. The revoked
// guard in the WHERE clause is what serializes concurrent rotations of the
// same secret: exactly one UPDATE reports an affected row, every other
// contender sees ErrNotFound.
func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ? AND revoked = 0`, hash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`, userID)
	if err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens removes at most limit expired rows. The
// subquery picks victims by expiry so a huge backlog is drained in bounded
// transactions instead of one unbounded DELETE holding the write lock.
func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(
	ctx context.Context,
	now time.Time,
	limit int,
) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE id IN (
			SELECT id FROM refresh_tokens WHERE expires_at < ? LIMIT ?
		)`, now, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
