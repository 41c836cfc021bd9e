package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "tabletally-session"

func testCodec(t *testing.T) *HS256Codec {
	t.Helper()
	codec, err := NewHS256Codec([]byte("0123456789abcdef0123456789abcdef"), testIssuer)
	require.NoError(t, err)
	return codec
}

func TestNewHS256Codec_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256Codec(nil, testIssuer)
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	codec := testCodec(t)

	now := time.Now().UTC()
	claims := NewAccessClaims("user-1", "waiter", testIssuer, 15*time.Minute, now)

	raw, err := codec.Sign(claims)
	require.NoError(t, err)

	got, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "waiter", got.Role)
	require.Equal(t, testIssuer, got.Issuer)
	require.Equal(t, claims.ID, got.ID)
	require.NoError(t, got.ValidateExpiry())
}

func TestJTIFreshPerIssuance(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	a := NewAccessClaims("user-1", "waiter", testIssuer, time.Minute, now)
	b := NewAccessClaims("user-1", "waiter", testIssuer, time.Minute, now)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}

func TestVerify_TamperedToken(t *testing.T) {
	t.Parallel()
	codec := testCodec(t)

	raw, err := codec.Sign(NewAccessClaims("user-1", "waiter", testIssuer, time.Minute, time.Now().UTC()))
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = codec.Verify(tampered)
	require.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	other, err := NewHS256Codec([]byte("a completely different secret!!!"), testIssuer)
	require.NoError(t, err)

	raw, err := testCodec(t).Sign(NewAccessClaims("user-1", "waiter", testIssuer, time.Minute, time.Now().UTC()))
	require.NoError(t, err)

	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	codec := testCodec(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := codec.Verify(raw)
		require.ErrorIs(t, err, ErrMalformed)
	}
}

func TestVerify_IssuerMismatch(t *testing.T) {
	t.Parallel()
	codec := testCodec(t)

	raw, err := codec.Sign(NewAccessClaims("user-1", "waiter", "someone-else", time.Minute, time.Now().UTC()))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerify_ExpiredTokenStillParses(t *testing.T) {
	t.Parallel()
	codec := testCodec(t)

	// Logout needs the claims of an already-expired token, so Verify
	// itself does not enforce exp.
	issued := time.Now().UTC().Add(-time.Hour)
	raw, err := codec.Sign(NewAccessClaims("user-1", "waiter", testIssuer, time.Minute, issued))
	require.NoError(t, err)

	got, err := codec.Verify(raw)
	require.NoError(t, err)
	require.ErrorIs(t, got.ValidateExpiry(), ErrExpired)
}

func TestValidateExpiry_NotYetValid(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("user-1", "waiter", testIssuer, time.Hour, time.Now().UTC().Add(time.Hour))
	require.ErrorIs(t, claims.ValidateExpiry(), ErrNotYetValid)
}
