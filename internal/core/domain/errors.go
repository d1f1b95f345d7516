package domain

import (
	"errors"
	"fmt"
)

// Acquisition failure classifications. Each is terminal and user-actionable;
// surrounding UI chooses the remedy (retry vs. settings guidance) from the
// class, so a generic "failed" is never surfaced.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrAcquisitionTimeout  = errors.New("position acquisition timed out")
	ErrUnsupported         = errors.New("location API unsupported")
	ErrInsecureContext     = errors.New("location requires a secure context")
)

var (
	ErrSessionNotFound  = errors.New("tracking session not found")
	ErrSessionActive    = errors.New("tracking session already active")
	ErrSessionStopped   = errors.New("tracking session stopped")
	ErrMarkerNotFound   = errors.New("marker not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrPresentationBusy = errors.New("a presentation is already in progress")
)

// AcquisitionClass returns the wire label for a classified acquisition error,
// and whether err carries one.
func AcquisitionClass(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission-denied", true
	case errors.Is(err, ErrPositionUnavailable):
		return "position-unavailable", true
	case errors.Is(err, ErrAcquisitionTimeout):
		return "timeout", true
	case errors.Is(err, ErrUnsupported):
		return "unsupported", true
	case errors.Is(err, ErrInsecureContext):
		return "insecure-context", true
	}
	return "", false
}

// RetryableAcquisition reports whether the classification permits an
// immediate retry of Start (as opposed to requiring user action).
func RetryableAcquisition(err error) bool {
	return errors.Is(err, ErrPositionUnavailable) || errors.Is(err, ErrAcquisitionTimeout)
}

// AcquisitionError wraps an underlying source failure with its classification
// sentinel, so callers can branch with errors.Is while keeping the cause.
type AcquisitionError struct {
	Class error
	Cause error
}

func (e *AcquisitionError) Error() string {
	if e.Cause == nil {
		return e.Class.Error()
	}
	return fmt.Sprintf("%s: %v", e.Class.Error(), e.Cause)
}

func (e *AcquisitionError) Is(target error) bool { return errors.Is(e.Class, target) }

func (e *AcquisitionError) Unwrap() error { return e.Cause }

// ClassifyAcquisition wraps err with the given classification. A nil err
// yields a bare classified error.
func ClassifyAcquisition(class, err error) error {
	return &AcquisitionError{Class: class, Cause: err}
}
