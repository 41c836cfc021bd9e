package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
)

type denylistRepo struct {
	q queryer
}

// InsertDenylistEntry records a revoked jti. ON CONFLICT DO NOTHING keeps a
// repeated logout with the same access token idempotent.
func (r *denylistRepo) InsertDenylistEntry(ctx context.Context, e domain.DenylistEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO denylist (id, expires_at, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.ExpiresAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert denylist entry: %w", err)
	}
	return nil
}

func (r *denylistRepo) IsDenylisted(ctx context.Context, jti string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM denylist WHERE id = ?`, jti).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("denylist lookup: %w", err)
	}
	return n > 0, nil
}

func (r *denylistRepo) DeleteExpiredDenylistEntries(
	ctx context.Context,
	now time.Time,
	limit int,
) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM denylist
		WHERE id IN (
			SELECT id FROM denylist WHERE expires_at < ? LIMIT ?
		)`, now, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired denylist entries: %w", err)
	}
	return res.RowsAffected()
}
