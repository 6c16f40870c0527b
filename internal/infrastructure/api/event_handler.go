package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/domain"
)

// EventHandler handles raw activity record ingestion.
type EventHandler struct {
	ingestUseCase *application.IngestRecordsUseCase
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(ingestUseCase *application.IngestRecordsUseCase) *EventHandler {
	return &EventHandler{
		ingestUseCase: ingestUseCase,
	}
}

// RegisterRoutes registers the event routes on the given group.
func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/events", h.IngestEvents)
}

// IngestEventsRequest is the request body for batch ingestion.
type IngestEventsRequest struct {
	Records []domain.RawRecord `json:"records"`
}

// IngestEvents handles POST /api/v1/events
// accepts a batch of raw records in any of the supported legacy shapes.
// bad records are skipped and counted, never aborting the batch.
func (h *EventHandler) IngestEvents(c echo.Context) error {
	var req IngestEventsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Records) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "records is required")
	}

	output, err := h.ingestUseCase.Execute(c.Request().Context(), application.IngestRecordsInput{
		Records: req.Records,
	})
	if err != nil {
		return mapDomainError(err)
	}

	// events are persisted asynchronously, so 202 rather than 201
	return c.JSON(http.StatusAccepted, output)
}

// mapDomainError maps domain/application errors to HTTP errors.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMalformedEvent),
		errors.Is(err, domain.ErrFutureTimestamp),
		errors.Is(err, domain.ErrInvalidScheme),
		isValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// isValidationError checks if the error indicates a validation failure.
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid") || strings.Contains(msg, "required")
}
