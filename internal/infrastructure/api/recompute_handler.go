package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PipelineRunner triggers an on-demand recompute run.
// the scheduler implements this.
type PipelineRunner interface {
	RunNow(ctx context.Context, force bool) error
}

// RecomputeHandler exposes the admin recompute trigger.
type RecomputeHandler struct {
	runner PipelineRunner
}

// NewRecomputeHandler creates a new RecomputeHandler.
func NewRecomputeHandler(runner PipelineRunner) *RecomputeHandler {
	return &RecomputeHandler{runner: runner}
}

// RegisterRoutes registers the recompute route on the given group.
// the group is expected to carry admin auth middleware.
func (h *RecomputeHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/recompute", h.Recompute)
}

// RecomputeResponse is the response for a triggered recompute.
type RecomputeResponse struct {
	Status      string `json:"status"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// Recompute handles POST /api/v1/recompute?force=true
// force rewrites stats for every closed period instead of only new ones.
func (h *RecomputeHandler) Recompute(c echo.Context) error {
	force := c.QueryParam("force") == "true"

	if err := h.runner.RunNow(c.Request().Context(), force); err != nil {
		return mapDomainError(err)
	}

	resp := RecomputeResponse{Status: "completed"}
	if claims := GetCallerClaims(c); claims != nil {
		resp.TriggeredBy = claims.CallerID()
	}
	return c.JSON(http.StatusOK, resp)
}
