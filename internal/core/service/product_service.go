package service

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
	"github.com/backoffice/admin-api/internal/pkg/clock"
	"github.com/backoffice/admin-api/internal/pkg/metrics"
)

const imageKeyPrefix = "products/"

type ProductService struct {
	repo    ports.ProductRepository
	images  ports.ImageStore
	janitor ports.ImageJanitor
	clock   clock.Clock
	log     zerolog.Logger
}

func NewProductService(
	repo ports.ProductRepository,
	images ports.ImageStore,
	janitor ports.ImageJanitor,
	clk clock.Clock,
	log zerolog.Logger,
) *ProductService {
	if clk == nil {
		clk = clock.System()
	}
	return &ProductService{repo: repo, images: images, janitor: janitor, clock: clk, log: log}
}

// CreateProduct uploads the image and stores the product. If the insert fails
// the uploaded image is removed again.
func (s *ProductService) CreateProduct(ctx context.Context, input ports.ProductInput, image ports.ImageInput) (*domain.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	key, url, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product := &domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageKey:    key,
		ImageURL:    url,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.log.Error().Err(err).Msg("failed to create product")
		s.discard(ctx, key)
		return nil, fmt.Errorf("create product: %w", err)
	}

	metrics.ProductMutationsTotal.WithLabelValues("create").Inc()
	s.log.Info().Int64("product_id", product.ID).Msg("product created")
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ListProducts never returns a nil slice.
func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// UpdateProduct replaces the product fields and image. The previous image is
// handed to the janitor once the new state is persisted.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input ports.ProductInput, image ports.ImageInput) (*domain.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key, url, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	oldKey := existing.ImageKey
	updated := *existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.Description = input.Description
	updated.Category = input.Category
	updated.Price = input.Price
	updated.Stock = input.Stock
	updated.ImageKey = key
	updated.ImageURL = url
	updated.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, &updated); err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		s.discard(ctx, key)
		return nil, fmt.Errorf("update product: %w", err)
	}

	if oldKey != "" && oldKey != key {
		s.janitor.Enqueue(oldKey)
	}

	metrics.ProductMutationsTotal.WithLabelValues("update").Inc()
	s.log.Info().Int64("product_id", id).Msg("product updated")
	return &updated, nil
}

// DeleteProduct removes the product and schedules its image for deletion.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (*domain.Product, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted.ImageKey != "" {
		s.janitor.Enqueue(deleted.ImageKey)
	}

	metrics.ProductMutationsTotal.WithLabelValues("delete").Inc()
	s.log.Info().Int64("product_id", id).Msg("product deleted")
	return deleted, nil
}

func (s *ProductService) upload(ctx context.Context, image ports.ImageInput) (key, url string, err error) {
	if len(image.Data) == 0 {
		return "", "", fmt.Errorf("%w: image is required", domain.ErrInvalidImage)
	}

	key = imageKeyPrefix + uuid.NewString() + imageExtension(image.ContentType)
	url, err = s.images.Put(ctx, key, image.Data, image.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}
	return key, url, nil
}

func (s *ProductService) discard(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("image_key", key).Msg("failed to remove uploaded image")
	}
}

func validateProduct(in ports.ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidProduct)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidProduct)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidProduct)
	}
	return nil
}

// imageExtensions maps the accepted image content types to stored key
// suffixes. The client's file name is never used.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
}

func imageExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return imageExtensions[strings.ToLower(mediaType)]
}
