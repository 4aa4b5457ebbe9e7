package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// AccountSummary is the account view returned alongside a token pair.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	StoreID  string `json:"store_id,omitempty"`
}

// LoginResult bundles the authenticated account and its freshly minted
// session.
type LoginResult struct {
	Account AccountSummary    `json:"account"`
	Tokens  *domain.TokenPair `json:"tokens"`
}

// Profile is the "who am I" view.
type Profile struct {
	Account *domain.Account `json:"account"`
	Role    string          `json:"role"`
	Store   *domain.Store   `json:"store,omitempty"`
}

// StorePromotion is the result of a customer opening a store: the store,
// the refreshed profile, and a new token pair carrying the admin role.
type StorePromotion struct {
	Store   *domain.Store     `json:"store"`
	Account AccountSummary    `json:"account"`
	Tokens  *domain.TokenPair `json:"tokens"`
}

// SessionService owns login, logout, refresh, password reset, and profile
// assembly.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Logout revokes the refresh token's session. When the caller also
	// presents its access token, that token is blacklisted for its
	// remaining lifetime; an empty accessToken skips the blacklist.
	Logout(ctx context.Context, refreshToken, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	// RequestPasswordReset always reports success-shaped output; the side
	// effect only happens for existing active accounts.
	RequestPasswordReset(ctx context.Context, email string) (*OtpDelivery, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Profile(ctx context.Context, accountID string) (*Profile, error)
	// PromoteToStoreOwner opens a store for an active customer and grants
	// the admin role, returning a session that reflects the new role.
	PromoteToStoreOwner(ctx context.Context, accountID, storeName string) (*StorePromotion, error)
}
