package ports

import (
	"context"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// CredentialStore is the durable mapping from email to identity.
type CredentialStore interface {
	// FindByEmail returns domain.ErrUserNotFound when no identity has the
	// (already normalized) email.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// Insert persists identity atomically; it returns domain.ErrDuplicateEmail
	// when the email is already taken and never overwrites.
	Insert(ctx context.Context, identity *domain.Identity) error
}
