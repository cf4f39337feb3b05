package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/backoffice/admin-api/internal/core/domain"
)

const usersCollection = "users"

// CredentialRepository stores identities in the users collection. Email
// uniqueness is enforced by a unique index, see EnsureIndexes.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID         string `bson:"_id"`
	Email      string `bson:"email"`
	SecretHash string `bson:"secret_hash"`
	Role       string `bson:"role"`
	FirstName  string `bson:"first_name,omitempty"`
	LastName   string `bson:"last_name,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("ensure users indexes: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Insert(ctx context.Context, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		ID:         identity.ID,
		Email:      identity.Email,
		SecretHash: identity.SecretHash,
		Role:       identity.Role,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		CreatedAt:  identity.CreatedAt.UnixMilli(),
		UpdatedAt:  identity.UpdatedAt.UnixMilli(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.Identity{
		ID:         mu.ID,
		Email:      mu.Email,
		SecretHash: mu.SecretHash,
		Role:       mu.Role,
		FirstName:  mu.FirstName,
		LastName:   mu.LastName,
		CreatedAt:  millisToTime(mu.CreatedAt),
		UpdatedAt:  millisToTime(mu.UpdatedAt),
	}, nil
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
