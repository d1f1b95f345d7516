// Package dispatch implements the best-effort side-effect dispatcher: the
// secondary, fire-and-forget half of the reporting pipeline's dual write.
// Failures here are logged by callers and never affect primary-path state.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const publishTimeout = 2 * time.Second

// Publisher pushes side-effect triggers (geofence evaluation, history
// logging) onto per-kind Redis channels for downstream consumers.
type Publisher struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewPublisher creates a Publisher wrapping the given client.
func NewPublisher(client *redis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// Notify publishes the payload on the kind's channel. The error return is
// informational: call sites treat it as log-only.
func (p *Publisher) Notify(ctx context.Context, kind string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", kind, err)
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.client.Publish(pctx, "sideeffects:"+kind, data).Err(); err != nil {
		return fmt.Errorf("dispatch %s: %w", kind, err)
	}
	return nil
}
