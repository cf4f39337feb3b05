package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
	"github.com/backoffice/admin-api/internal/pkg/clock"
	"github.com/backoffice/admin-api/internal/pkg/metrics"
)

// CredentialService implements user creation and credential validation.
type CredentialService struct {
	store       ports.CredentialStore
	hasher      ports.SecretHasher
	clock       clock.Clock
	defaultRole string
	log         zerolog.Logger
	dummyHash   string
}

// NewCredentialService wires the service. New users get defaultRole, or
// domain.RoleViewer when defaultRole is not a known role.
func NewCredentialService(
	store ports.CredentialStore,
	hasher ports.SecretHasher,
	clk clock.Clock,
	defaultRole string,
	log zerolog.Logger,
) (*CredentialService, error) {
	if clk == nil {
		clk = clock.System()
	}
	if !domain.ValidRole(defaultRole) {
		defaultRole = domain.RoleViewer
	}
	// Unknown emails are compared against this hash so both failure paths
	// pay the same hashing cost.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}
	return &CredentialService{
		store:       store,
		hasher:      hasher,
		clock:       clk,
		defaultRole: defaultRole,
		log:         log,
		dummyHash:   dummy,
	}, nil
}

// CreateUser provisions a new identity. The returned identity never carries
// the secret hash.
func (s *CredentialService) CreateUser(ctx context.Context, in ports.NewUserInput) (*domain.Identity, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	role := in.Role
	if role == "" {
		role = s.defaultRole
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.UsersCreatedTotal.WithLabelValues("duplicate_email").Inc()
		return nil, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.UsersCreatedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.UsersCreatedTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.clock.Now()
	identity := &domain.Identity{
		ID:         uuid.NewString(),
		Email:      email,
		SecretHash: hash,
		Role:       role,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The pre-check above can race; Insert is the authoritative uniqueness check.
	if err := s.store.Insert(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.UsersCreatedTotal.WithLabelValues("duplicate_email").Inc()
			return nil, domain.ErrDuplicateEmail
		}
		metrics.UsersCreatedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreatedTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("user_id", identity.ID).Str("role", identity.Role).Msg("user created")
	return identity.Public(), nil
}

// EnsureAdmin creates an admin identity for email unless one with that email
// already exists. Used at startup to seed the first administrator.
func (s *CredentialService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.CreateUser(ctx, ports.NewUserInput{Email: email, Password: password, Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		return err
	}

	existing, err := s.store.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if existing.Role != domain.RoleAdmin {
		s.log.Warn().Str("user_id", existing.ID).Str("role", existing.Role).
			Msg("bootstrap admin email belongs to a non-admin user, leaving it unchanged")
		return nil
	}
	s.log.Debug().Str("user_id", existing.ID).Msg("bootstrap admin already present")
	return nil
}

// ValidateUser checks email and password. An unknown email and a wrong
// password both yield domain.ErrInvalidCredentials.
func (s *CredentialService) ValidateUser(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		s.recordFailure("unknown_email")
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.recordFailure("unknown_email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("validate user: %w", err)
	}

	if !s.hasher.Verify(password, identity.SecretHash) {
		s.recordFailure("wrong_secret")
		return nil, domain.ErrInvalidCredentials
	}

	return identity.Public(), nil
}

func (s *CredentialService) recordFailure(reason string) {
	metrics.CredentialFailuresTotal.WithLabelValues(reason).Inc()
	s.log.Debug().Str("reason", reason).Msg("credential validation failed")
}
