package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/streampulse/activityd/pkg/models"
)

// ingestEventHandler handles POST /api/events.
// Returns 201 with the new event id, or 200 with the original event id when
// the Idempotency-Key header replays a previous successful ingest.
func (s *Server) ingestEventHandler(c *echo.Context) error {
	var req models.IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// The caller may only publish events as itself.
	if req.ActorID != authUserID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "actor_id must match X-User-Id header")
	}

	req.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")

	result, err := s.ingestService.Ingest(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	return c.JSON(status, &IngestResponse{EventID: result.EventID})
}
