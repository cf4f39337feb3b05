package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/backoffice/admin-api/docs"
	"github.com/backoffice/admin-api/internal/api/handler"
	"github.com/backoffice/admin-api/internal/api/middleware"
	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
)

// Deps holds everything the HTTP layer needs. Throttle may be nil.
type Deps struct {
	Credentials ports.CredentialService
	Tokens      ports.TokenIssuer
	Throttle    ports.LoginThrottle
	Products    ports.ProductService
	Health      []handler.Dependency

	// AllowOpenRegistration leaves POST /access/createUser public. When
	// false only an authenticated admin may create users.
	AllowOpenRegistration bool
	// Metrics enables the Prometheus middleware and the /metrics route.
	Metrics bool

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.BodyLimit("2M"))
	if deps.Metrics {
		e.Use(echoprometheus.NewMiddleware("admin"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Credentials, deps.Tokens, deps.Throttle, deps.Logger)
	productHandler := handler.NewProductHandler(deps.Products, deps.Logger)
	healthHandler := handler.NewHealthHandler(deps.Logger, deps.Health...)

	guard := middleware.Auth(deps.Tokens, deps.Logger)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Access ---
	access := e.Group("/access")
	if deps.AllowOpenRegistration {
		access.POST("/createUser", authHandler.CreateUser)
	} else {
		access.POST("/createUser", authHandler.CreateUser, guard, adminOnly)
	}
	access.POST("/loginAccess", authHandler.Login)
	access.GET("/me", authHandler.Me, guard)

	// --- Catalog (authenticated; writes require admin) ---
	product := e.Group("/product", guard)
	product.GET("", productHandler.List)
	product.GET("/:id", productHandler.Get)
	product.POST("/create-product", productHandler.Create, adminOnly)
	product.PUT("/:id", productHandler.Update, adminOnly)
	product.DELETE("/:id", productHandler.Delete, adminOnly)

	// --- Health probes and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
