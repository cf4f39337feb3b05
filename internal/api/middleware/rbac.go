package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/backoffice/admin-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth; a request
// without a principal is treated as unauthenticated.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := domain.PrincipalFrom(c.Request().Context())
			if !ok {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[principal.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
