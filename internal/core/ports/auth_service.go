package ports

import (
	"context"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// NewUserInput carries the fields accepted on user creation. An empty Role
// means the service's default role.
type NewUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// CredentialService provisions and verifies credentials.
type CredentialService interface {
	CreateUser(ctx context.Context, input NewUserInput) (*domain.Identity, error)
	ValidateUser(ctx context.Context, email, password string) (*domain.Identity, error)
}

// SecretHasher is a one-way, salted password hash.
type SecretHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenVerifier turns a bearer token back into the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	TokenVerifier
	Issue(identity *domain.Identity) (domain.Token, error)
}

// LoginThrottle limits repeated failed logins per email.
type LoginThrottle interface {
	// Reserve records an attempt and reports whether it is within the limit.
	Reserve(ctx context.Context, email string) (bool, error)
	// Reset forgets the attempts after a successful login.
	Reset(ctx context.Context, email string) error
}
