package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

const collectionEvents = "domain_events"

// EventRepository implements ports.EventFetcher: the reconciliation-poll
// read of the most recent domain events.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates an EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventFetcher {
	return &EventRepository{col: db.Collection(collectionEvents)}
}

// FetchRecent returns the most recent events by timestamp, newest first.
func (r *EventRepository) FetchRecent(ctx context.Context, limit int) ([]domain.DomainEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []domain.DomainEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
