package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// AccessClaims are the verified contents of an access token.
type AccessClaims struct {
	AccountID  string
	Role       string
	StoreID    string
	JTI        string
	RefreshJTI string
}

// RefreshClaims are the verified contents of a refresh token.
type RefreshClaims struct {
	AccountID string
	Role      string
	JTI       string
}

// TokenService mints and verifies the signed session token pair and talks
// to the revocation store for current validity.
type TokenService interface {
	// IssuePair mints an access/refresh pair with fresh jtis and registers
	// the refresh jti in the revocation store before returning. storeID is
	// empty for customers.
	IssuePair(ctx context.Context, accountID, role, storeID string) (*domain.TokenPair, error)
	// VerifyAccess checks signature and expiry, then the blacklist.
	VerifyAccess(ctx context.Context, token string) (*AccessClaims, error)
	// VerifyRefresh checks signature and expiry, then requires a live
	// revocation-store record mapping the jti to the same account.
	VerifyRefresh(ctx context.Context, token string) (*RefreshClaims, error)
	// RevokeRefresh deletes the refresh record; domain.ErrTokenNotFound when
	// it was already gone.
	RevokeRefresh(ctx context.Context, jti string) error
	// RevokeAccess blacklists a live access token for its remaining lifetime
	// so it stops verifying before its cryptographic expiry.
	RevokeAccess(ctx context.Context, token string) error
}
