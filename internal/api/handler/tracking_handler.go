package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulmate/tracking-system/internal/core/ports"
)

// TrackingHandler handles HTTP requests for tracking session operations and
// remote position ingest.
type TrackingHandler struct {
	tracking ports.TrackingService
	store    ports.PositionStore
}

func NewTrackingHandler(tracking ports.TrackingService, store ports.PositionStore) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, store: store}
}

// Start handles POST /v1/tracking/:subject_id/start.
//
// @Summary      Start a live tracking session
// @Tags         tracking
// @Produce      json
// @Param        subject_id  path      string  true  "Subject identifier"
// @Success      201         {object}  sessionResponse
// @Failure      403         {object}  errorResponse
// @Failure      409         {object}  errorResponse
// @Failure      503         {object}  errorResponse
// @Router       /v1/tracking/{subject_id}/start [post]
func (h *TrackingHandler) Start(c echo.Context) error {
	subjectID := c.Param("subject_id")
	if subjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subject_id is required")
	}

	session, err := h.tracking.Start(c.Request().Context(), subjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

// Stop handles POST /v1/tracking/:subject_id/stop.
//
// @Summary      Stop a live tracking session
// @Tags         tracking
// @Produce      json
// @Param        subject_id  path  string  true  "Subject identifier"
// @Success      204         "session stopped"
// @Failure      404         {object}  errorResponse
// @Router       /v1/tracking/{subject_id}/stop [post]
func (h *TrackingHandler) Stop(c echo.Context) error {
	if err := h.tracking.Stop(c.Request().Context(), c.Param("subject_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Status handles GET /v1/tracking/:subject_id.
//
// @Summary      Get the state of a tracking session
// @Tags         tracking
// @Produce      json
// @Param        subject_id  path      string  true  "Subject identifier"
// @Success      200         {object}  sessionResponse
// @Failure      404         {object}  errorResponse
// @Router       /v1/tracking/{subject_id} [get]
func (h *TrackingHandler) Status(c echo.Context) error {
	session, err := h.tracking.Status(c.Request().Context(), c.Param("subject_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Submit handles POST /v1/positions: a device reporting its current reading
// into its live session.
//
// @Summary      Submit a device position
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body  submitPositionRequest  true  "Position reading"
// @Success      202   "position accepted"
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/positions [post]
func (h *TrackingHandler) Submit(c echo.Context) error {
	var req submitPositionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.tracking.Submit(c.Request().Context(), req.SubjectID, req.position()); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// LastPosition handles GET /v1/positions/:subject_id: the most recent
// persisted report for a subject.
//
// @Summary      Get the last reported position
// @Tags         tracking
// @Produce      json
// @Param        subject_id  path      string  true  "Subject identifier"
// @Success      200         {object}  positionResponse
// @Failure      404         {object}  errorResponse
// @Router       /v1/positions/{subject_id} [get]
func (h *TrackingHandler) LastPosition(c echo.Context) error {
	report, err := h.store.ReadPosition(c.Request().Context(), c.Param("subject_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPositionResponse(report))
}
