package ports

import (
	"context"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// EventPushChannel is the push half of the dual-channel event feed. Subscribe
// returns a channel of events delivered as they happen; the channel closes
// when ctx is cancelled or the underlying transport drops.
type EventPushChannel interface {
	SubscribePush(ctx context.Context) (<-chan domain.DomainEvent, error)
}

// EventFetcher is the poll half: a reconciliation read of the most recent
// events by recency.
type EventFetcher interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.DomainEvent, error)
}

// ReadStateStore durably persists the set of event ids the operator has read,
// plus the audible-cue preference. The read set grows monotonically.
type ReadStateStore interface {
	MarkRead(ctx context.Context, eventIDs ...string) error
	ListRead(ctx context.Context) (map[string]struct{}, error)
	SetSoundEnabled(ctx context.Context, enabled bool) error
	SoundEnabled(ctx context.Context) (bool, error)
}

// SoundPlayer plays the audible cue for a fresh event. Environments without
// sound playback supply nil and the cue silently no-ops.
type SoundPlayer interface {
	Chime()
}
