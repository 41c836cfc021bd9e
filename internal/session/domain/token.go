package domain

import "time"

// TokenPair is what a successful login or refresh returns: the short-lived
// signed access token and the opaque refresh token. The refresh value here
// is the raw secret, handed to the caller exactly once and never stored.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// RefreshToken models the stored refresh token record. Only the SHA-256
// fingerprint of the opaque secret is persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 of the opaque secret
	ClientIP  string // advisory provenance only
	UserAgent string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Usable reports whether the row can still be exchanged for a new pair.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// DenylistEntry marks a revoked access token by its jti. The token itself is
// stateless and never stored, so the id is the only revocation handle. Rows
// become dead weight once ExpiresAt passes and the sweeper reclaims them.
type DenylistEntry struct {
	ID        string // the access token's jti claim
	ExpiresAt time.Time
	CreatedAt time.Time
}
