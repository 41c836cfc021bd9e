// Package jwtx is the access-token codec: claims layout plus an HS256
// signer/verifier pair built eagerly from a shared signing secret. Tokens are
// self-contained; revocation happens one layer up via the jti denylist.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Short access tokens, week-long refresh rows; both can
// be overridden per-service through configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims. Keep changes additive so tokens minted
// by older builds keep verifying during a rolling deploy.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the principal's role name at issuance time. A role change
	// only takes effect on the next issued token.
	Role string `json:"role,omitempty"`
}

// NewAccessClaims builds minimally-correct claims with a fresh jti. The jti
// is the only handle revocation has, since the token itself is never stored.
func NewAccessClaims(subject, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a random unique identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateIssuer checks the issuer claim against the expected value.
// An empty expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}
