package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// Acquisition failures additionally carry their classification so the UI can
// offer the right remedy (retry vs. settings guidance).
type errorResponse struct {
	Error     string `json:"error"`
	Class     string `json:"class,omitempty"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Surfaces acquisition failure classifications verbatim.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Classified acquisition failures → deterministic codes + class label.
	if class, ok := domain.AcquisitionClass(err); ok {
		retryable := domain.RetryableAcquisition(err)
		code := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			code = http.StatusForbidden
		case retryable:
			code = http.StatusServiceUnavailable
		}
		return code, errorResponse{Error: err.Error(), Class: class, Retryable: &retryable}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, errorResponse{Error: "tracking session not found"}
	case errors.Is(err, domain.ErrSessionActive):
		return http.StatusConflict, errorResponse{Error: "tracking session already active"}
	case errors.Is(err, domain.ErrSessionStopped):
		return http.StatusConflict, errorResponse{Error: "tracking session stopped"}
	case errors.Is(err, domain.ErrMarkerNotFound):
		return http.StatusNotFound, errorResponse{Error: "marker not found"}
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, errorResponse{Error: "event not found"}
	case errors.Is(err, domain.ErrPositionNotFound):
		return http.StatusNotFound, errorResponse{Error: "position not found"}
	case errors.Is(err, domain.ErrPresentationBusy):
		return http.StatusConflict, errorResponse{Error: "a presentation is already in progress"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
