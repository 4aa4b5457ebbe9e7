package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// AccountRepository persists accounts and role assignments in MongoDB.
// Every read filters out soft-deleted rows; deletion is a timestamp, never
// a document removal.
type AccountRepository struct {
	accounts *mongo.Collection
	roles    *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		accounts: db.Collection(accountCollection),
		roles:    db.Collection(roleCollection),
	}
}

type accountDoc struct {
	ID              string     `bson:"_id"`
	Username        string     `bson:"username"`
	Email           string     `bson:"email"`
	PasswordHash    string     `bson:"password_hash"`
	EmailVerifiedAt *time.Time `bson:"email_verified_at"`
	Status          string     `bson:"status"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
	DeletedAt       *time.Time `bson:"deleted_at"`
}

type roleDoc struct {
	AccountID string    `bson:"account_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func notDeletedFilter(extra bson.M) bson.M {
	extra["deleted_at"] = nil
	return extra
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	doc := accountDoc{
		ID:              account.ID,
		Username:        account.Username,
		Email:           account.Email,
		PasswordHash:    account.PasswordHash,
		EmailVerifiedAt: account.EmailVerifiedAt,
		Status:          string(account.Status),
		CreatedAt:       account.CreatedAt,
		UpdatedAt:       account.UpdatedAt,
	}

	if _, err := r.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, notDeletedFilter(bson.M{"_id": id}))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, notDeletedFilter(bson.M{"email": email}))
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.accounts.CountDocuments(ctx, notDeletedFilter(bson.M{"email": email}))
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.accounts.UpdateOne(ctx,
		notDeletedFilter(bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.accounts.UpdateOne(ctx,
		notDeletedFilter(bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			"email_verified_at": now,
			"status":            string(domain.StatusActive),
			"updated_at":        now,
		}},
	)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) AssignRole(ctx context.Context, assignment *domain.RoleAssignment) error {
	doc := roleDoc{
		AccountID: assignment.AccountID,
		Role:      assignment.Role,
		CreatedAt: assignment.CreatedAt,
	}
	if _, err := r.roles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyAdmin
		}
		return fmt.Errorf("insert role assignment: %w", err)
	}
	return nil
}

func (r *AccountRepository) RolesOf(ctx context.Context, accountID string) ([]domain.RoleAssignment, error) {
	cur, err := r.roles.Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	assignments := make([]domain.RoleAssignment, 0, len(docs))
	for _, d := range docs {
		assignments = append(assignments, domain.RoleAssignment{
			AccountID: d.AccountID,
			Role:      d.Role,
			CreatedAt: d.CreatedAt,
		})
	}
	return assignments, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:              d.ID,
		Username:        d.Username,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		EmailVerifiedAt: d.EmailVerifiedAt,
		Status:          domain.AccountStatus(d.Status),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		DeletedAt:       d.DeletedAt,
	}
}
