package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// OtpRepository persists one-time-code challenges in MongoDB.
type OtpRepository struct {
	coll *mongo.Collection
}

func NewOtpRepository(db *mongo.Database) *OtpRepository {
	return &OtpRepository{coll: db.Collection(otpCollection)}
}

type otpDoc struct {
	ID         string     `bson:"_id"`
	AccountID  string     `bson:"account_id"`
	CodeHash   string     `bson:"code_hash"`
	Purpose    string     `bson:"purpose"`
	ExpiresAt  time.Time  `bson:"expires_at"`
	VerifiedAt *time.Time `bson:"verified_at"`
	Attempts   int        `bson:"attempts"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func (r *OtpRepository) Create(ctx context.Context, challenge *domain.OtpChallenge) (*domain.OtpChallenge, error) {
	doc := otpDoc{
		ID:         challenge.ID,
		AccountID:  challenge.AccountID,
		CodeHash:   challenge.CodeHash,
		Purpose:    string(challenge.Purpose),
		ExpiresAt:  challenge.ExpiresAt,
		VerifiedAt: challenge.VerifiedAt,
		Attempts:   challenge.Attempts,
		CreatedAt:  challenge.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OtpRepository) FindLatest(ctx context.Context, accountID string, purpose domain.OtpPurpose) (*domain.OtpChallenge, error) {
	var doc otpDoc
	err := r.coll.FindOne(ctx,
		bson.M{"account_id": accountID, "purpose": string(purpose)},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrOtpNotFound
		}
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	return doc.toDomain(), nil
}

// ExpireActive forces expiry of unverified, unexpired challenges so a newly
// issued code supersedes them.
func (r *OtpRepository) ExpireActive(ctx context.Context, accountID string, purpose domain.OtpPurpose, at time.Time) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{
			"account_id":  accountID,
			"purpose":     string(purpose),
			"verified_at": nil,
			"expires_at":  bson.M{"$gt": at},
		},
		bson.M{"$set": bson.M{"expires_at": at}},
	)
	if err != nil {
		return fmt.Errorf("expire challenges: %w", err)
	}
	return nil
}

func (r *OtpRepository) Update(ctx context.Context, challenge *domain.OtpChallenge) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": challenge.ID},
		bson.M{"$set": bson.M{
			"attempts":    challenge.Attempts,
			"verified_at": challenge.VerifiedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOtpNotFound
	}
	return nil
}

func (d *otpDoc) toDomain() *domain.OtpChallenge {
	return &domain.OtpChallenge{
		ID:         d.ID,
		AccountID:  d.AccountID,
		CodeHash:   d.CodeHash,
		Purpose:    domain.OtpPurpose(d.Purpose),
		ExpiresAt:  d.ExpiresAt,
		VerifiedAt: d.VerifiedAt,
		Attempts:   d.Attempts,
		CreatedAt:  d.CreatedAt,
	}
}
