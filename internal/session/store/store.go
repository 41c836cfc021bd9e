// Package store defines the data access interfaces for the session
// subsystem. Concrete drivers live under drivers/; sqlite is the only one
// today. Sub-repositories keep concerns tidy and make it obvious which
// operations a transaction may combine.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tabletally/tabletally/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Denylist() Denylist

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back on error and
	// committing on nil. Preferred over Tx for almost every caller.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repositories, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is read-mostly: the principal table belongs to the ordering backend.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is the login lookup.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser exists for bootstrap and tests (id is app-provided ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// SetUserActive flips the active flag (account suspension).
	SetUserActive(ctx context.Context, userID string, active bool) error

	// IsEmpty reports whether there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the row matching a secret's fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked on a not-yet-revoked row. Returns
	// ErrNotFound when no such row exists, including when a concurrent
	// rotation already flipped it; that distinction is the rotation race
	// guard, so callers must not swallow it blindly.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens bulk-revokes every live token of a user
	// (logout-everywhere, account suspension).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens removes at most limit rows whose expiry
	// precedes now and reports how many went. Batching bounds the write
	// lock the sweeper holds per transaction.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time, limit int) (int64, error)
}

type Denylist interface {
	// InsertDenylistEntry records a revoked access token id. Inserting the
	// same jti twice is a no-op, which keeps logout idempotent.
	InsertDenylistEntry(ctx context.Context, e domain.DenylistEntry) error

	// IsDenylisted reports whether the jti has been revoked.
	IsDenylisted(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredDenylistEntries removes at most limit rows whose expiry
	// precedes now and reports how many went.
	DeleteExpiredDenylistEntries(ctx context.Context, now time.Time, limit int) (int64, error)
}
