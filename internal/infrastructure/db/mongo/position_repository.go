package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

const collectionPositions = "device_positions"

// PositionRepository implements ports.PositionStore: one canonical
// last-known-position document per subject, replaced on every write.
type PositionRepository struct {
	col *mongo.Collection
}

func NewPositionRepository(db *mongo.Database) *PositionRepository {
	return &PositionRepository{col: db.Collection(collectionPositions)}
}

// WritePosition upserts the subject's last-known-position record. Writes are
// idempotent snapshots keyed by subject: a late write simply clobbers with
// whatever was latest at send time.
func (r *PositionRepository) WritePosition(ctx context.Context, report domain.PositionReport) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx,
		bson.M{"subject_id": report.SubjectID},
		report,
		options.Replace().SetUpsert(true),
	)
	return err
}

// ReadPosition fetches the subject's last-known report, backing both the
// read-back verification and the last-position lookup.
func (r *PositionRepository) ReadPosition(ctx context.Context, subjectID string) (domain.PositionReport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var report domain.PositionReport
	err := r.col.FindOne(ctx, bson.M{"subject_id": subjectID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.PositionReport{}, domain.ErrPositionNotFound
		}
		return domain.PositionReport{}, err
	}
	return report, nil
}

// EnsureIndexes creates the unique subject index.
func (r *PositionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subject_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
