// Package auth provides the password hashing and bearer token primitives
// behind the credential ports.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// BcryptHasher implements ports.SecretHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash generates a salted hash. bcrypt only looks at the first 72 bytes, so
// longer secrets are rejected rather than silently truncated.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("hash secret: %w", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes yield false.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
