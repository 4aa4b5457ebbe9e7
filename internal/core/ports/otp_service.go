package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// OtpService issues and verifies one-time codes.
type OtpService interface {
	// Issue supersedes prior active challenges for (accountID, purpose) and
	// creates a fresh one. The plaintext code is returned exactly once, for
	// delivery; only its hash is stored.
	Issue(ctx context.Context, accountID string, purpose domain.OtpPurpose) (string, *domain.OtpChallenge, error)
	// Verify checks a submitted code against the newest challenge. The
	// attempt counter is incremented and persisted on every call, success
	// included, so retries stay bounded.
	Verify(ctx context.Context, accountID string, purpose domain.OtpPurpose, code string) error
	// ExpiryMinutes exposes the configured challenge lifetime for responses.
	ExpiryMinutes() int
}
