package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulmate/tracking-system/internal/core/ports"
)

// MarkerHandler handles HTTP requests for proximity marker operations.
type MarkerHandler struct {
	proximity ports.ProximityService
}

func NewMarkerHandler(proximity ports.ProximityService) *MarkerHandler {
	return &MarkerHandler{proximity: proximity}
}

// Replay handles POST /v1/markers/:id/replay: clear the heard record for the
// subject and re-present the marker once, bypassing dedup.
//
// @Summary      Replay a marker presentation
// @Tags         markers
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "Marker identifier"
// @Param        body  body  replayRequest  true  "Subject to replay for"
// @Success      204   "presentation replayed"
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/markers/{id}/replay [post]
func (h *MarkerHandler) Replay(c echo.Context) error {
	var req replayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.proximity.Replay(c.Request().Context(), req.SubjectID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
