package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ReadinessProber reports whether a backing dependency can serve traffic.
type ReadinessProber interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the payload for liveness and readiness probes.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Detail  string `json:"detail,omitempty"`
}

const probeTimeout = 2 * time.Second

// RegisterHealthRoutes registers the probe endpoints. /health answers as long
// as the process is up; /ready additionally pings the database so load
// balancers stop routing when postgres is unreachable. Both routes are public.
func RegisterHealthRoutes(e *echo.Echo, db ReadinessProber) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: "tidemark",
		})
	})

	e.GET("/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
		defer cancel()

		if db != nil {
			if err := db.HealthCheck(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, HealthResponse{
					Status:  "unavailable",
					Service: "tidemark",
					Detail:  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ready",
			Service: "tidemark",
		})
	})
}
