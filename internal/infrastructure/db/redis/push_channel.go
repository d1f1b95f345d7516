package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

const channelEvents = "notifications:events"

// PushChannel implements ports.EventPushChannel over Redis Pub/Sub: the push
// half of the dual-channel event feed.
type PushChannel struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewPushChannel creates a PushChannel wrapping the given client.
func NewPushChannel(client *redis.Client, log zerolog.Logger) *PushChannel {
	return &PushChannel{client: client, log: log}
}

// SubscribePush subscribes to the event channel and returns a channel of
// decoded events. The channel closes when ctx is cancelled or the
// subscription drops; the reconciliation poll backstops either case.
func (p *PushChannel) SubscribePush(ctx context.Context) (<-chan domain.DomainEvent, error) {
	ps := p.client.Subscribe(ctx, channelEvents)
	// First receive confirms the subscription is established.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan domain.DomainEvent, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt domain.DomainEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					p.log.Warn().Err(err).Msg("dropping undecodable pushed event")
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
