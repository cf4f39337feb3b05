package ports

import (
	"context"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// ProductRepository defines persistence operations for catalog products.
type ProductRepository interface {
	// Create assigns the next sequential ID to p and inserts it.
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	// Update replaces the stored product with the same ID.
	Update(ctx context.Context, p *domain.Product) error
	// Delete removes the product and returns what was stored.
	Delete(ctx context.Context, id int64) (*domain.Product, error)
}

// ImageStore holds uploaded product images.
type ImageStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageJanitor removes images that are no longer referenced, off the request path.
type ImageJanitor interface {
	Enqueue(key string)
}
