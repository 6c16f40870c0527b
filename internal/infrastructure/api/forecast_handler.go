package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/tidemark/internal/application"
)

// ForecastHandler serves forecast, momentum, pattern and trend reads.
// all four views come from the same forecast computation, so the cached
// payload backs every route.
type ForecastHandler struct {
	forecastUseCase *application.ForecastUseCase
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(forecastUseCase *application.ForecastUseCase) *ForecastHandler {
	return &ForecastHandler{
		forecastUseCase: forecastUseCase,
	}
}

// RegisterRoutes registers the forecast routes on the given group.
func (h *ForecastHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/forecast", h.GetForecast)
	g.GET("/activity/patterns", h.GetPatterns)
	g.GET("/activity/trend", h.GetTrend)
}

func (h *ForecastHandler) resolveScheme(c echo.Context) string {
	if scheme := c.QueryParam("scheme"); scheme != "" {
		return scheme
	}
	if schemes := h.forecastUseCase.Schemes(); len(schemes) > 0 {
		return schemes[0]
	}
	return ""
}

// GetForecast handles GET /api/v1/forecast?scheme=
// returns the full analytical payload: live period, observed count,
// prediction with range and confidence, momentum windows, trend, patterns.
func (h *ForecastHandler) GetForecast(c echo.Context) error {
	forecast, err := h.forecastUseCase.ExecuteCached(c.Request().Context(), h.resolveScheme(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, forecast)
}

// GetPatterns handles GET /api/v1/activity/patterns?scheme=
func (h *ForecastHandler) GetPatterns(c echo.Context) error {
	forecast, err := h.forecastUseCase.ExecuteCached(c.Request().Context(), h.resolveScheme(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, forecast.Patterns)
}

// GetTrend handles GET /api/v1/activity/trend?scheme=
func (h *ForecastHandler) GetTrend(c echo.Context) error {
	forecast, err := h.forecastUseCase.ExecuteCached(c.Request().Context(), h.resolveScheme(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, forecast.Trend)
}
