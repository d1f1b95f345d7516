package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

const collectionMarkers = "proximity_markers"

// MarkerRepository implements ports.MarkerCatalog over the read-only marker
// reference collection.
type MarkerRepository struct {
	col *mongo.Collection
}

func NewMarkerRepository(db *mongo.Database) *MarkerRepository {
	return &MarkerRepository{col: db.Collection(collectionMarkers)}
}

// QueryMarkersInBoundingBox returns markers whose coordinates fall inside the
// coarse prefilter window, in the collection's natural order. Exact radius
// math is the engine's job.
func (r *MarkerRepository) QueryMarkersInBoundingBox(ctx context.Context, box domain.BoundingBox) ([]domain.ProximityMarker, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"lat": bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"lng": bson.M{"$gte": box.MinLng, "$lte": box.MaxLng},
	}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var markers []domain.ProximityMarker
	if err := cur.All(ctx, &markers); err != nil {
		return nil, err
	}
	return markers, nil
}

// GetMarker fetches a single marker by id.
func (r *MarkerRepository) GetMarker(ctx context.Context, id string) (domain.ProximityMarker, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m domain.ProximityMarker
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ProximityMarker{}, domain.ErrMarkerNotFound
		}
		return domain.ProximityMarker{}, err
	}
	return m, nil
}

// EnsureIndexes creates the lat/lng index backing the bounding-box query.
func (r *MarkerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lat", Value: 1}, {Key: "lng", Value: 1}},
	})
	return err
}
