package ports

import (
	"context"
	"time"
)

// TokenStore is the revocation store: the authoritative record of which
// session tokens are still valid, independent of their cryptographic expiry.
type TokenStore interface {
	// SaveRefresh records a refresh jti as valid for the account, expiring
	// with the token itself.
	SaveRefresh(ctx context.Context, jti, accountID string, ttl time.Duration) error
	// GetRefresh returns the account a refresh jti belongs to, or
	// domain.ErrTokenNotFound when the record is absent (revoked or expired).
	GetRefresh(ctx context.Context, jti string) (string, error)
	// DeleteRefresh revokes a refresh jti. Returns domain.ErrTokenNotFound
	// when there was nothing to revoke.
	DeleteRefresh(ctx context.Context, jti string) error

	// BlacklistAccess marks an access jti as revoked for its remaining life.
	BlacklistAccess(ctx context.Context, jti string, ttl time.Duration) error
	IsAccessBlacklisted(ctx context.Context, jti string) (bool, error)
}
