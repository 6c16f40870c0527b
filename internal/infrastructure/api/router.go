package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/auth"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
type RouterConfig struct {
	Schemes         []domain.RotationScheme
	IngestUseCase   *application.IngestRecordsUseCase
	ForecastUseCase *application.ForecastUseCase
	ActivityQuery   *application.ActivityQuery
	PipelineRunner  PipelineRunner
	JWTValidator    *auth.JWTValidator
	Readiness       ReadinessProber
	Logger          *logging.Logger
	Metrics         *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// follows RESTful conventions and groups routes logically.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		// apply metrics middleware to all routes
		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.Readiness)

	// public read/ingest surface
	v1 := e.Group("/api/v1")

	if config.IngestUseCase != nil {
		NewEventHandler(config.IngestUseCase).RegisterRoutes(v1)
	}

	if config.ActivityQuery != nil {
		NewHeatmapHandler(config.ActivityQuery).RegisterRoutes(v1)
		NewPeriodHandler(config.Schemes, config.ActivityQuery).RegisterRoutes(v1)
	}

	if config.ForecastUseCase != nil {
		NewForecastHandler(config.ForecastUseCase).RegisterRoutes(v1)
	}

	// admin surface behind service-token auth
	if config.PipelineRunner != nil && config.JWTValidator != nil {
		admin := e.Group("/api/v1")
		admin.Use(AdminAuthMiddleware(AuthConfig{JWTValidator: config.JWTValidator}))
		NewRecomputeHandler(config.PipelineRunner).RegisterRoutes(admin)
	}

	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", config.Metrics != nil,
		"api_prefix", "/api/v1",
	)
}
