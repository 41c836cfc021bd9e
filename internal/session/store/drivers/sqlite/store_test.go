package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tabletally/tabletally/internal/session/domain"
	"github.com/tabletally/tabletally/internal/session/store"
	"github.com/tabletally/tabletally/pkg/cryptox"
	"github.com/tabletally/tabletally/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, username string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		Role:         "waiter",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedRefreshToken(t *testing.T, s store.Store, userID string, expiresAt time.Time) domain.RefreshToken {
	t.Helper()

	now := time.Now().UTC()
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(idx.New().String()),
		ClientIP:  "192.0.2.1",
		UserAgent: "test-agent",
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), rt))
	return rt
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "alice")

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "waiter", got.Role)
	require.True(t, got.Active)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, byID.Username)

	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().SetUserActive(ctx, u.ID, false))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.ErrorIs(t, s.Users().SetUserActive(ctx, "missing", true), store.ErrNotFound)
}

func TestRefreshTokensRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	rt := seedRefreshToken(t, s, u.ID, time.Now().UTC().Add(time.Hour))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
	require.Equal(t, "192.0.2.1", got.ClientIP)
	require.False(t, got.Revoked)
	require.True(t, got.Usable(time.Now().UTC()))

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "unknown-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevokeRefreshToken_SecondRevokeFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice")
	rt := seedRefreshToken(t, s, u.ID, time.Now().UTC().Add(time.Hour))

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, rt.TokenHash))

	// The loser of a rotation race lands here: the row exists but is
	// already revoked, which must be indistinguishable from no row.
	err := s.RefreshTokens().RevokeRefreshToken(ctx, rt.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

func TestRevokeAllUserRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	tokens := make([]domain.RefreshToken, 0, 3)
	for range 3 {
		tokens = append(tokens, seedRefreshToken(t, s, alice.ID, time.Now().UTC().Add(time.Hour)))
	}
	bobToken := seedRefreshToken(t, s, bob.ID, time.Now().UTC().Add(time.Hour))

	require.NoError(t, s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, alice.ID))

	for _, rt := range tokens {
		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, bobToken.TokenHash)
	require.NoError(t, err)
	require.False(t, got.Revoked, "other users' tokens must be untouched")
}

func TestDeleteExpiredRefreshTokens_Batches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	now := time.Now().UTC()
	for range 25 {
		seedRefreshToken(t, s, u.ID, now.Add(-time.Minute))
	}
	live := seedRefreshToken(t, s, u.ID, now.Add(time.Hour))

	// 25 expired rows with batch size 10: 10, 10, 5.
	var counts []int64
	for {
		n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now, 10)
		require.NoError(t, err)
		counts = append(counts, n)
		if n < 10 {
			break
		}
	}
	require.Equal(t, []int64{10, 10, 5}, counts)

	// The unexpired row survives every batch.
	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, live.TokenHash)
	require.NoError(t, err)
}

func TestDenylistRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	entry := domain.DenylistEntry{
		ID:        "jti-1234",
		ExpiresAt: now.Add(15 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, s.Denylist().InsertDenylistEntry(ctx, entry))

	// Re-inserting the same jti is a no-op (idempotent logout).
	require.NoError(t, s.Denylist().InsertDenylistEntry(ctx, entry))

	listed, err := s.Denylist().IsDenylisted(ctx, "jti-1234")
	require.NoError(t, err)
	require.True(t, listed)

	listed, err = s.Denylist().IsDenylisted(ctx, "other-jti")
	require.NoError(t, err)
	require.False(t, listed)
}

func TestDeleteExpiredDenylistEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	for i := range 7 {
		require.NoError(t, s.Denylist().InsertDenylistEntry(ctx, domain.DenylistEntry{
			ID:        fmt.Sprintf("expired-%d", i),
			ExpiresAt: now.Add(-time.Minute),
			CreatedAt: now.Add(-time.Hour),
		}))
	}
	require.NoError(t, s.Denylist().InsertDenylistEntry(ctx, domain.DenylistEntry{
		ID:        "still-live",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))

	n, err := s.Denylist().DeleteExpiredDenylistEntries(ctx, now, 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	n, err = s.Denylist().DeleteExpiredDenylistEntries(ctx, now, 5)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	listed, err := s.Denylist().IsDenylisted(ctx, "still-live")
	require.NoError(t, err)
	require.True(t, listed)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	sentinel := fmt.Errorf("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		seedRefreshToken(t, tx, u.ID, time.Now().UTC().Add(time.Hour))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Nothing from the failed tx is visible.
	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_tokens`).Scan(&rows))
	require.Zero(t, rows)
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	var hash string
	err := s.WithTx(ctx, func(tx store.Tx) error {
		rt := seedRefreshToken(t, tx, u.ID, time.Now().UTC().Add(time.Hour))
		hash = rt.TokenHash
		return nil
	})
	require.NoError(t, err)

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	require.NoError(t, err)
}
