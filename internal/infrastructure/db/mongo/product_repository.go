package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/backoffice/admin-api/internal/core/domain"
)

const (
	productsCollection = "products"
	countersCollection = "counters"
	productCounterID   = "products"
)

// ProductRepository stores catalog products. IDs are sequential and come from
// a counter document incremented atomically with $inc.
type ProductRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		col:      db.Collection(productsCollection),
		counters: db.Collection(countersCollection),
	}
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (r *ProductRepository) nextID(ctx context.Context) (int64, error) {
	var c counter
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": productCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next product id: %w", err)
	}
	return c.Seq, nil
}

// Create assigns the next ID to p and inserts it.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	p.ID = id

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		p.ID = 0
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cur.Close(ctx)

	products := []*domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes the product and returns the stored document.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Product
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return &p, nil
}

// EnsureIndexes creates the secondary indexes on the products collection.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure products indexes: %w", err)
	}
	return nil
}
