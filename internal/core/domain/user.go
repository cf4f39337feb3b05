package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Identity is a registered user's durable authentication record.
type Identity struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	SecretHash string    `json:"-"`
	Role       string    `json:"role"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Public returns a copy safe to hand to callers: the secret hash is cleared.
func (i *Identity) Public() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.SecretHash = ""
	return &out
}

// NormalizeEmail is the canonical form used as the credential lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one the RBAC layer knows about.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}
