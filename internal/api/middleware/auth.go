package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
	"github.com/backoffice/admin-api/internal/pkg/metrics"
)

// Auth admits a request only when it carries a valid bearer token. The
// verified principal is attached to the request context; every rejection is
// the same domain.ErrUnauthenticated so callers cannot tell why.
func Auth(verifier ports.TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(c, log, "missing_header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return reject(c, log, "bad_scheme")
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				return reject(c, log, rejectionReason(err))
			}

			ctx := domain.WithPrincipal(c.Request().Context(), principal)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func reject(c echo.Context, log zerolog.Logger, reason string) error {
	metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
	log.Debug().
		Str("reason", reason).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request rejected")
	return domain.ErrUnauthenticated
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
