// Package announce delivers marker presentations and alert chimes to
// connected clients over Redis pub/sub. The playback itself happens on the
// client; this side only guarantees the announcement reached the broker.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

const (
	presentationChannel = "announce:presentations"
	chimeChannel        = "announce:chime"

	publishTimeout = 5 * time.Second
)

// presentationMessage is the wire shape published for each presentation.
type presentationMessage struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	MarkerID    string    `json:"marker_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DistanceM   float64   `json:"distance_m"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	AnnouncedAt time.Time `json:"announced_at"`
}

// Announcer implements ports.Presenter and ports.SoundPlayer over Redis
// pub/sub.
type Announcer struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewAnnouncer(client *redis.Client, log zerolog.Logger) *Announcer {
	return &Announcer{client: client, log: log}
}

// Present publishes the presentation message. Only a nil return lets the
// caller record the marker as heard, so broker failures surface as errors.
func (a *Announcer) Present(ctx context.Context, marker domain.ProximityMarker, pc ports.PresentContext) error {
	msg := presentationMessage{
		ID:          uuid.NewString(),
		SubjectID:   pc.SubjectID,
		MarkerID:    marker.ID,
		Title:       marker.Title,
		Description: marker.Description,
		DistanceM:   pc.DistanceM,
		Lat:         pc.Position.Lat,
		Lng:         pc.Position.Lng,
		AnnouncedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("announce marker %s: %w", marker.ID, err)
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.client.Publish(pctx, presentationChannel, data).Err(); err != nil {
		return fmt.Errorf("announce marker %s: %w", marker.ID, err)
	}

	a.log.Info().
		Str("marker_id", marker.ID).
		Str("subject_id", pc.SubjectID).
		Float64("distance_m", pc.DistanceM).
		Msg("presentation announced")
	return nil
}

// Chime fires the alert sound signal. Best effort: delivery problems are
// logged and swallowed, a missed chime never blocks feed ingestion.
func (a *Announcer) Chime() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := a.client.Publish(ctx, chimeChannel, "1").Err(); err != nil {
		a.log.Warn().Err(err).Msg("chime publish failed")
	}
}
