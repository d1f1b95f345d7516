package ports

import (
	"context"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// FeedItem is a domain event annotated with local read state.
type FeedItem struct {
	Event domain.DomainEvent `json:"event"`
	Read  bool               `json:"read"`
}

// FeedAlert is the ephemeral notification emitted when a truly new event
// enters the feed.
type FeedAlert struct {
	Event  domain.DomainEvent `json:"event"`
	Source string             `json:"source"` // "push" or "poll"
}

// NotificationFeed is the dual-channel event notification pipeline: a
// bounded, deduplicated, most-recent-first feed with durable read state.
type NotificationFeed interface {
	List() []FeedItem
	UnreadCount() int
	MarkRead(ctx context.Context, eventID string) error
	MarkAllRead(ctx context.Context) error
	SetSound(ctx context.Context, enabled bool) error
	Sound() bool

	// Subscribe registers an ephemeral alert listener. The returned cancel
	// func unregisters it and closes the channel.
	Subscribe() (<-chan FeedAlert, func())
}
