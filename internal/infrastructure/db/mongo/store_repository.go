package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// StoreRepository persists seller storefronts in MongoDB. Stores survive an
// owner's soft delete; removal is its own explicit timestamp.
type StoreRepository struct {
	coll *mongo.Collection
}

func NewStoreRepository(db *mongo.Database) *StoreRepository {
	return &StoreRepository{coll: db.Collection(storeCollection)}
}

type storeDoc struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"owner_id"`
	Name        string     `bson:"name"`
	Description string     `bson:"description,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	DeletedAt   *time.Time `bson:"deleted_at"`
}

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) (*domain.Store, error) {
	doc := storeDoc{
		ID:          store.ID,
		OwnerID:     store.OwnerID,
		Name:        store.Name,
		Description: store.Description,
		CreatedAt:   store.CreatedAt,
		UpdatedAt:   store.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrStoreNameExists
		}
		return nil, fmt.Errorf("insert store: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *StoreRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error) {
	var doc storeDoc
	if err := r.coll.FindOne(ctx, notDeletedFilter(bson.M{"owner_id": ownerID})).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrStoreNotFound
		}
		return nil, fmt.Errorf("find store: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *StoreRepository) NameExists(ctx context.Context, name string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, notDeletedFilter(bson.M{"name": name}))
	if err != nil {
		return false, fmt.Errorf("count stores: %w", err)
	}
	return n > 0, nil
}

func (d *storeDoc) toDomain() *domain.Store {
	return &domain.Store{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		DeletedAt:   d.DeletedAt,
	}
}
