package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HeardRepository implements ports.HeardStore backed by a Redis hash per
// subject. Field presence is the dedup signal; the value records when the
// marker was heard. Key format: heard:<subject_id>
type HeardRepository struct {
	client *redis.Client
}

// NewHeardRepository creates a HeardRepository wrapping the given client.
func NewHeardRepository(client *redis.Client) *HeardRepository {
	return &HeardRepository{client: client}
}

// UpsertHeard records that the marker has been presented to the subject.
// Re-upserting an existing pair just refreshes the timestamp.
func (r *HeardRepository) UpsertHeard(ctx context.Context, subjectID, markerID string) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	if err := r.client.HSet(ctx, r.key(subjectID), markerID, ts).Err(); err != nil {
		return fmt.Errorf("upsert heard: %w", err)
	}
	return nil
}

// DeleteHeard removes the record, allowing a deliberate replay. Deleting an
// absent pair is a no-op.
func (r *HeardRepository) DeleteHeard(ctx context.Context, subjectID, markerID string) error {
	if err := r.client.HDel(ctx, r.key(subjectID), markerID).Err(); err != nil {
		return fmt.Errorf("delete heard: %w", err)
	}
	return nil
}

// ListHeard returns the set of marker ids already presented to the subject.
func (r *HeardRepository) ListHeard(ctx context.Context, subjectID string) (map[string]struct{}, error) {
	fields, err := r.client.HGetAll(ctx, r.key(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list heard: %w", err)
	}
	out := make(map[string]struct{}, len(fields))
	for markerID := range fields {
		out[markerID] = struct{}{}
	}
	return out, nil
}

func (r *HeardRepository) key(subjectID string) string {
	return "heard:" + subjectID
}
