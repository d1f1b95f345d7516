package ports

import (
	"context"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// MarkerCatalog is the read-only reference catalog of proximity markers.
// Results come back in the catalog's natural order, which is also the
// presentation tie-break order.
type MarkerCatalog interface {
	QueryMarkersInBoundingBox(ctx context.Context, box domain.BoundingBox) ([]domain.ProximityMarker, error)

	// GetMarker fetches a single marker by id, for explicit replay.
	GetMarker(ctx context.Context, id string) (domain.ProximityMarker, error)
}

// HeardStore persists which (subject, marker) pairs have been presented.
type HeardStore interface {
	UpsertHeard(ctx context.Context, subjectID, markerID string) error
	DeleteHeard(ctx context.Context, subjectID, markerID string) error
	ListHeard(ctx context.Context, subjectID string) (map[string]struct{}, error)
}

// PresentContext carries the detection details the generator may use.
type PresentContext struct {
	SubjectID string
	DistanceM float64
	Position  domain.Coordinates
}

// Presenter invokes the external presentation/generation step for a matched
// marker. It may be slow; only a nil return marks the marker heard.
type Presenter interface {
	Present(ctx context.Context, marker domain.ProximityMarker, pc PresentContext) error
}
