package domain

import "errors"

// Credential errors.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Token and authorization errors. Every token failure surfaces to callers as
// ErrUnauthenticated; the specific kind is kept for metrics and logs.
var (
	ErrTokenMalformed  = errors.New("token malformed")
	ErrTokenInvalid    = errors.New("token signature invalid")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access forbidden")
)

// Catalog errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product data")
	ErrInvalidImage    = errors.New("invalid image")
)

// IsTokenError reports whether err is one of the token verification failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired)
}
