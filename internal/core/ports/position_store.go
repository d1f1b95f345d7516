package ports

import (
	"context"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// PositionStore is the durable store holding the canonical last-known
// position per subject. WritePosition is the reporting pipeline's primary
// write; ReadPosition backs the periodic read-back verification.
type PositionStore interface {
	WritePosition(ctx context.Context, report domain.PositionReport) error
	ReadPosition(ctx context.Context, subjectID string) (domain.PositionReport, error)
}

// BatteryProber reads the device battery level, best-effort. Implementations
// may be absent entirely; a nil prober simply omits the field.
type BatteryProber interface {
	BatteryPercent(ctx context.Context) (int, error)
}
