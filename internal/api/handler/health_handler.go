package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const readinessTimeout = 3 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependency is a named readiness check.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves the liveness and readiness checks. Responses
// are public, so ping errors are only logged.
type HealthHandler struct {
	deps []Dependency
	log  zerolog.Logger
}

func NewHealthHandler(log zerolog.Logger, deps ...Dependency) *HealthHandler {
	sorted := append([]Dependency(nil), deps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &HealthHandler{deps: sorted, log: log}
}

type readinessResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// Liveness handles GET /health. It only confirms the process is serving.
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready, pinging every dependency.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.deps))
	healthy := true

	for _, d := range h.deps {
		if err := d.Pinger.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", d.Name).Msg("readiness check failed")
			deps[d.Name] = "unhealthy"
			healthy = false
			continue
		}
		deps[d.Name] = "ok"
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
