package domain

import (
	"regexp"
	"time"
)

// MaxImageBytes is the largest accepted product image.
const MaxImageBytes = 1024000

var imageTypePattern = regexp.MustCompile(`(jpg|jpeg|png|gif)$`)

// AcceptsImageType reports whether the MIME type or file name matches one of
// the catalog's image formats.
func AcceptsImageType(s string) bool {
	return imageTypePattern.MatchString(s)
}

// Product is a catalog entry.
type Product struct {
	ID          int64     `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Stock       int       `json:"stock" bson:"stock"`
	ImageKey    string    `json:"-" bson:"image_key,omitempty"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
