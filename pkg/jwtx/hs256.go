package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrNoSecret    = errors.New("jwtx: signing secret must not be empty")
)

// Signer signs access-token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a compact token and returns its claims if legit.
// Expiry is validated separately by the caller so logout can still parse an
// expiring token.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Codec signs and verifies tokens with a shared HMAC-SHA256 secret.
// Construct it once at startup; there is no key rotation and no public key
// material to publish.
type HS256Codec struct {
	secret []byte
	issuer string
}

// NewHS256Codec builds the codec from the shared secret. The issuer, when
// non-empty, is enforced on every verification.
func NewHS256Codec(secret []byte, issuer string) (*HS256Codec, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	return &HS256Codec{secret: secret, issuer: issuer}, nil
}

// Sign produces a compact HS256 JWT for the given claims.
func (c *HS256Codec) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Verify parses the compact token, checks the HMAC signature and issuer, and
// returns the claims. Expiry is not checked here; callers decide whether an
// expiring token is acceptable (logout) or not (request authentication).
func (c *HS256Codec) Verify(raw string) (Claims, error) {
	var claims Claims

	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		switch {
		case errors.Is(err, ErrAlgMismatch):
			return Claims{}, ErrAlgMismatch
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, ErrMalformed
		}
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
