package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	keyReadEvents = "notifications:read"
	keySoundPref  = "notifications:sound"
)

// ReadStateRepository implements ports.ReadStateStore: the durably persisted
// set of read event ids plus the audible-cue preference. The read set only
// ever grows; SADD makes re-marking an id a natural no-op.
type ReadStateRepository struct {
	client *redis.Client
}

// NewReadStateRepository creates a ReadStateRepository wrapping the given client.
func NewReadStateRepository(client *redis.Client) *ReadStateRepository {
	return &ReadStateRepository{client: client}
}

// MarkRead adds the event ids to the read set. Idempotent.
func (r *ReadStateRepository) MarkRead(ctx context.Context, eventIDs ...string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	members := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		members[i] = id
	}
	if err := r.client.SAdd(ctx, keyReadEvents, members...).Err(); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// ListRead returns the full set of read event ids.
func (r *ReadStateRepository) ListRead(ctx context.Context) (map[string]struct{}, error) {
	ids, err := r.client.SMembers(ctx, keyReadEvents).Result()
	if err != nil {
		return nil, fmt.Errorf("list read: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// SetSoundEnabled persists the audible-cue preference.
func (r *ReadStateRepository) SetSoundEnabled(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	if err := r.client.Set(ctx, keySoundPref, val, 0).Err(); err != nil {
		return fmt.Errorf("set sound preference: %w", err)
	}
	return nil
}

// SoundEnabled returns the persisted preference, defaulting to on when none
// has been stored yet.
func (r *ReadStateRepository) SoundEnabled(ctx context.Context) (bool, error) {
	val, err := r.client.Get(ctx, keySoundPref).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("get sound preference: %w", err)
	}
	return val == "1", nil
}
