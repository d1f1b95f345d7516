package ports

import (
	"context"
	"time"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// ReadOptions tunes a single position read.
type ReadOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaxAge allows a cached reading no older than this to satisfy the read.
	// Zero means only a fresh reading is acceptable.
	MaxAge time.Duration
}

// WatchOptions tunes a continuous position subscription.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// PositionWatch is a live subscription to position updates. Updates and
// Errors are closed when the watch ends; Stop cancels the subscription and
// is safe to call more than once.
type PositionWatch interface {
	Updates() <-chan domain.DevicePosition
	Errors() <-chan error
	Stop()
}

// PositionSource abstracts the device location API. Failures returned from
// ReadOnce and Watch are expected to wrap one of the domain acquisition
// sentinels (ErrPermissionDenied, ErrPositionUnavailable,
// ErrAcquisitionTimeout, ErrUnsupported, ErrInsecureContext).
type PositionSource interface {
	ReadOnce(ctx context.Context, opts ReadOptions) (domain.DevicePosition, error)
	Watch(ctx context.Context, opts WatchOptions) (PositionWatch, error)

	// ProbeOnDenied reports whether this source is known to mis-report
	// permission as denied transiently, in which case the acquisition
	// machine issues a single low-accuracy disambiguation probe before
	// treating the denial as terminal.
	ProbeOnDenied() bool
}
