package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
)

// productRequest is the JSON document carried in the multipart "data" field.
type productRequest struct {
	Name        string    `json:"name"        validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Category    string    `json:"category"    validate:"max=100"`
	Price       flexFloat `json:"price"       validate:"gt=0"`
	Stock       int       `json:"stock"       validate:"gte=0"`
}

// flexFloat accepts both 12.5 and "12.5"; admin forms often send numbers as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("price %q is not a number", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductInput(req productRequest) ports.ProductInput {
	return ports.ProductInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Price:       float64(req.Price),
		Stock:       req.Stock,
	}
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func toProductListResponse(products []*domain.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}
