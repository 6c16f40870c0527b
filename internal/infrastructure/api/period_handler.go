package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/domain"
)

// PeriodHandler serves rotation period boundaries and closed-period stats.
type PeriodHandler struct {
	schemes      []domain.RotationScheme
	query        *application.ActivityQuery
	timeProvider application.TimeProvider
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(schemes []domain.RotationScheme, query *application.ActivityQuery) *PeriodHandler {
	return &PeriodHandler{
		schemes:      schemes,
		query:        query,
		timeProvider: application.RealTime,
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (h *PeriodHandler) WithTimeProvider(tp application.TimeProvider) *PeriodHandler {
	h.timeProvider = tp
	return h
}

// RegisterRoutes registers the period routes on the given group.
func (h *PeriodHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/periods", h.GetPeriods)
	g.GET("/periods/stats", h.GetPeriodStats)
}

// SchemePeriods reports the live and upcoming period for one scheme.
type SchemePeriods struct {
	Scheme  string         `json:"scheme"`
	Current *domain.Period `json:"current,omitempty"`
	Next    domain.Period  `json:"next"`
}

// PeriodsResponse is the response for the periods endpoint.
type PeriodsResponse struct {
	Schemes []SchemePeriods `json:"schemes"`
}

// GetPeriods handles GET /api/v1/periods?scheme=
// with no scheme filter it reports every configured scheme. current is
// omitted for schemes whose anchor lies in the future.
func (h *PeriodHandler) GetPeriods(c echo.Context) error {
	filter := c.QueryParam("scheme")
	now := h.timeProvider()

	resp := PeriodsResponse{}
	for _, s := range h.schemes {
		if filter != "" && s.Name() != filter {
			continue
		}
		current, next := s.PeriodsAt(now)
		resp.Schemes = append(resp.Schemes, SchemePeriods{
			Scheme:  s.Name(),
			Current: current,
			Next:    next,
		})
	}

	if filter != "" && len(resp.Schemes) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "unknown scheme "+filter)
	}
	return c.JSON(http.StatusOK, resp)
}

// PeriodStatsResponse is the response for the period stats endpoint.
type PeriodStatsResponse struct {
	Scheme  string               `json:"scheme"`
	Periods []domain.PeriodStats `json:"periods"`
}

// GetPeriodStats handles GET /api/v1/periods/stats?scheme=&limit=
// returns stats for closed periods, most recently ended first.
func (h *PeriodHandler) GetPeriodStats(c echo.Context) error {
	scheme := c.QueryParam("scheme")
	if scheme == "" && len(h.schemes) > 0 {
		scheme = h.schemes[0].Name()
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	stats, err := h.query.PeriodHistory(c.Request().Context(), scheme, limit)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, PeriodStatsResponse{Scheme: scheme, Periods: stats})
}
