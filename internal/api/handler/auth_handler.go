package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
	"github.com/backoffice/admin-api/internal/pkg/metrics"
)

type AuthHandler struct {
	credentials ports.CredentialService
	tokens      ports.TokenIssuer
	throttle    ports.LoginThrottle
	log         zerolog.Logger
}

// NewAuthHandler builds the /access handlers. throttle may be nil.
func NewAuthHandler(credentials ports.CredentialService, tokens ports.TokenIssuer, throttle ports.LoginThrottle, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{credentials: credentials, tokens: tokens, throttle: throttle, log: log}
}

// CreateUser registers a new user and logs them in. Only an authenticated
// admin may choose the role; everyone else gets the default role.
//
// @Summary      Create a user
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /access/createUser [post]
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if req.Role != "" {
		caller, ok := domain.PrincipalFrom(c.Request().Context())
		if !ok || caller.Role != domain.RoleAdmin {
			return domain.ErrForbidden
		}
	}

	user, err := h.credentials.CreateUser(c.Request().Context(), ports.NewUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toTokenResponse(token, user))
}

// Login verifies credentials and returns a bearer token.
//
// @Summary      Login
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /access/loginAccess [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	email := domain.NormalizeEmail(req.Email)

	if h.throttle != nil {
		allowed, err := h.throttle.Reserve(ctx, email)
		if err != nil {
			h.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		} else if !allowed {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			return domain.ErrTooManyAttempts
		}
	}

	user, err := h.credentials.ValidateUser(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	if h.throttle != nil {
		if err := h.throttle.Reset(ctx, email); err != nil {
			h.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toTokenResponse(token, nil))
}

// Me returns the caller's identity as carried by their token.
//
// @Summary      Current caller
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  principalResponse
// @Failure      401  {object}  errorResponse
// @Router       /access/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, principalResponse{ID: p.Subject, Role: p.Role})
}
