// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshCredential is the persisted half of a refresh token. Only the
// SHA-256 of the raw token is stored; the raw value leaves the service
// exactly once, in the issue response. A credential is either active or
// revoked — rotation revokes the old row and inserts its successor, so the
// chain is implicit in (user, time) and never walked backwards.
type RefreshCredential struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	UserAgent string     `db:"user_agent"`
	IPAddress string     `db:"ip_address"`
}

func (c *RefreshCredential) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

func (c *RefreshCredential) IsRevoked() bool {
	return c.RevokedAt != nil
}

func (c *RefreshCredential) IsActive() bool {
	return !c.IsExpired() && !c.IsRevoked()
}
