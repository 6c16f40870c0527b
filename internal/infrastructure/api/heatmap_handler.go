package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/domain"
)

// HeatmapHandler serves the precomputed hour-by-date activity matrix.
type HeatmapHandler struct {
	query *application.ActivityQuery
}

// NewHeatmapHandler creates a new HeatmapHandler.
func NewHeatmapHandler(query *application.ActivityQuery) *HeatmapHandler {
	return &HeatmapHandler{query: query}
}

// RegisterRoutes registers the heatmap routes on the given group.
func (h *HeatmapHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/heatmap", h.GetHeatmap)
	g.GET("/activity/range", h.GetRangeTotals)
}

// HeatmapResponse is the response for the heatmap endpoint.
type HeatmapResponse struct {
	Days []domain.HeatmapRow `json:"days"`
}

// GetHeatmap handles GET /api/v1/heatmap?start=YYYY-MM-DD&end=YYYY-MM-DD
// both bounds are optional and inclusive, in the tracker's civil timezone.
func (h *HeatmapHandler) GetHeatmap(c echo.Context) error {
	rows, err := h.query.Heatmap(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}

	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start != "" || end != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if start != "" && row.Date < start {
				continue
			}
			if end != "" && row.Date > end {
				continue
			}
			filtered = append(filtered, row)
		}
		rows = filtered
	}

	return c.JSON(http.StatusOK, HeatmapResponse{Days: rows})
}

// GetRangeTotals handles GET /api/v1/activity/range?start=...&end=...
// the bounds already echo back in the response body.
func (h *HeatmapHandler) GetRangeTotals(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start == "" || end == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "start and end are required")
	}

	totals, err := h.query.RangeTotals(c.Request().Context(), start, end)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, totals)
}
