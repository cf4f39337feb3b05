package handler

import (
	"time"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type createUserRequest struct {
	Email     string `json:"email"      validate:"required,email,max=254"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Role      string `json:"role"       validate:"omitempty,oneof=admin viewer"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *userResponse `json:"user,omitempty"`
}

type principalResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func toUserResponse(u *domain.Identity) *userResponse {
	return &userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toTokenResponse(t domain.Token, u *domain.Identity) tokenResponse {
	resp := tokenResponse{Token: t.Value, ExpiresAt: t.ExpiresAt.UTC()}
	if u != nil {
		resp.User = toUserResponse(u)
	}
	return resp
}
