package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// AccountRepository persists accounts and their role assignments. All
// lookups exclude soft-deleted rows.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// EmailExists reports whether a non-deleted account holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)
	// UpdatePassword replaces the stored credential hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// MarkVerified sets the email-verified timestamp and flips the account
	// from pending to active.
	MarkVerified(ctx context.Context, id string) error

	AssignRole(ctx context.Context, assignment *domain.RoleAssignment) error
	RolesOf(ctx context.Context, accountID string) ([]domain.RoleAssignment, error)
}
