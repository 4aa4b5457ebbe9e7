package ports

import (
	"context"
	"time"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// OtpRepository persists one-time-code challenges.
type OtpRepository interface {
	Create(ctx context.Context, challenge *domain.OtpChallenge) (*domain.OtpChallenge, error)
	// FindLatest returns the most recently created challenge for the account
	// and purpose, verified or not, or domain.ErrOtpNotFound.
	FindLatest(ctx context.Context, accountID string, purpose domain.OtpPurpose) (*domain.OtpChallenge, error)
	// ExpireActive forces expiry of every unverified, unexpired challenge for
	// the account and purpose, superseding them.
	ExpireActive(ctx context.Context, accountID string, purpose domain.OtpPurpose, at time.Time) error
	// Update persists attempt count and verification timestamp mutations.
	Update(ctx context.Context, challenge *domain.OtpChallenge) error
}
