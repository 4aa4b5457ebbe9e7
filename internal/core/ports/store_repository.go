package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// StoreRepository persists seller storefronts. Name uniqueness is global
// among non-deleted stores.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) (*domain.Store, error)
	FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error)
	NameExists(ctx context.Context, name string) (bool, error)
}
