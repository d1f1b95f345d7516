package ports

import (
	"context"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// TrackingService manages live tracking sessions, one per subject.
type TrackingService interface {
	// Start begins acquisition for the subject. It returns the session on
	// success, or a classified acquisition error (see domain sentinels) when
	// tracking could not start. Retrying after a retryable failure is always
	// allowed.
	Start(ctx context.Context, subjectID string) (domain.TrackingSession, error)

	// Stop ends the subject's session. Idempotent; stopping an unknown
	// subject returns ErrSessionNotFound.
	Stop(ctx context.Context, subjectID string) error

	// Status returns a snapshot of the subject's session.
	Status(ctx context.Context, subjectID string) (domain.TrackingSession, error)

	// Submit feeds an externally reported device position into the subject's
	// session (remote acquisition over HTTP).
	Submit(ctx context.Context, subjectID string, pos domain.DevicePosition) error
}

// ProximityService exposes the operations of the proximity detection engine
// that surrounding code may invoke directly.
type ProximityService interface {
	// Replay clears the heard record for (subject, marker) and re-presents
	// the marker once, bypassing the dedup check exactly once.
	Replay(ctx context.Context, subjectID, markerID string) error
}
