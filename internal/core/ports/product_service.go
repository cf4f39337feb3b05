package ports

import (
	"context"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
}

// ImageInput is an uploaded image that already passed type and size checks.
type ImageInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ProductService defines use-case operations for the catalog.
type ProductService interface {
	CreateProduct(ctx context.Context, input ProductInput, image ImageInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput, image ImageInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*domain.Product, error)
}
