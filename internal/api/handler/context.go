package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// principalFrom returns the caller attached by the Auth middleware. Its
// absence means the route was wired without the middleware; fail closed.
func principalFrom(c echo.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFrom(c.Request().Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}
