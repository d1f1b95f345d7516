package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/api/metrics"
	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// ProximityConfig tunes the detection engine.
type ProximityConfig struct {
	// DebounceMeters suppresses a check when the position has moved less
	// than this since the last executed check.
	DebounceMeters float64
	// BBoxLatDeg / BBoxLngDeg define the coarse catalog prefilter window
	// (roughly a 500-600m box at mid latitudes).
	BBoxLatDeg float64
	BBoxLngDeg float64
	// HeardWriteTimeout bounds the durable heard-record upsert, which runs
	// on a background context so session stop cannot cancel it.
	HeardWriteTimeout time.Duration
}

func (c ProximityConfig) withDefaults() ProximityConfig {
	if c.DebounceMeters <= 0 {
		c.DebounceMeters = 10
	}
	if c.BBoxLatDeg <= 0 {
		c.BBoxLatDeg = 0.005
	}
	if c.BBoxLngDeg <= 0 {
		c.BBoxLngDeg = 0.006
	}
	if c.HeardWriteTimeout <= 0 {
		c.HeardWriteTimeout = 5 * time.Second
	}
	return c
}

// ProximityEngine detects entry into a marker's trigger radius for one
// subject, presents the marker, and never re-presents it without an explicit
// replay. At most one presentation runs at a time, and at most one scan.
type ProximityEngine struct {
	subjectID string
	catalog   ports.MarkerCatalog
	heard     ports.HeardStore
	presenter ports.Presenter
	cfg       ProximityConfig
	log       zerolog.Logger

	checking   slotLock
	presenting slotLock

	mu          sync.Mutex
	lastChecked *domain.Coordinates
}

// NewProximityEngine builds an engine for one subject.
func NewProximityEngine(subjectID string, catalog ports.MarkerCatalog, heard ports.HeardStore, presenter ports.Presenter, cfg ProximityConfig, log zerolog.Logger) *ProximityEngine {
	return &ProximityEngine{
		subjectID: subjectID,
		catalog:   catalog,
		heard:     heard,
		presenter: presenter,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("subject_id", subjectID).Logger(),
	}
}

// Check runs one detection cycle against the given position. Overlapping
// calls (timer tick racing a fresh position) collapse to one scan; catalog
// or heard-store failures mean "nothing new this cycle".
func (e *ProximityEngine) Check(ctx context.Context, pos domain.DevicePosition) {
	if !e.checking.TryAcquire() {
		metrics.ProximityChecksTotal.WithLabelValues("busy").Inc()
		return
	}
	defer e.checking.Release()

	cur := pos.Coordinates()

	e.mu.Lock()
	tooSoon := e.lastChecked != nil && domain.HaversineMeters(*e.lastChecked, cur) < e.cfg.DebounceMeters
	e.mu.Unlock()
	if tooSoon {
		metrics.ProximityChecksTotal.WithLabelValues("debounced").Inc()
		return
	}

	if e.presenting.Held() {
		metrics.ProximityChecksTotal.WithLabelValues("presenting").Inc()
		return
	}

	// Only scans that actually run move the debounce anchor.
	e.mu.Lock()
	e.lastChecked = &cur
	e.mu.Unlock()

	box := domain.BoxAround(cur, e.cfg.BBoxLatDeg, e.cfg.BBoxLngDeg)
	markers, err := e.catalog.QueryMarkersInBoundingBox(ctx, box)
	if err != nil {
		e.log.Debug().Err(err).Msg("marker catalog query failed, skipping cycle")
		metrics.ProximityChecksTotal.WithLabelValues("error").Inc()
		return
	}
	if len(markers) == 0 {
		metrics.ProximityChecksTotal.WithLabelValues("no_match").Inc()
		return
	}

	heardSet, err := e.heard.ListHeard(ctx, e.subjectID)
	if err != nil {
		e.log.Debug().Err(err).Msg("heard-record lookup failed, skipping cycle")
		metrics.ProximityChecksTotal.WithLabelValues("error").Inc()
		return
	}

	// Candidates are scanned in catalog order; the first qualifying marker
	// wins this cycle, the rest wait for a future pass.
	for _, m := range markers {
		dist := domain.HaversineMeters(cur, m.Center())
		if dist > m.TriggerRadiusM() {
			continue
		}
		if _, already := heardSet[m.ID]; already {
			continue
		}
		metrics.ProximityChecksTotal.WithLabelValues("matched").Inc()
		e.startPresentation(m, ports.PresentContext{
			SubjectID: e.subjectID,
			DistanceM: dist,
			Position:  cur,
		})
		return
	}
	metrics.ProximityChecksTotal.WithLabelValues("no_match").Inc()
}

// startPresentation invokes the generator asynchronously under the
// single-flight presenting lock. Only confirmed completion upserts the heard
// record: a failed or aborted generation leaves the marker eligible to
// retrigger on the next qualifying pass.
func (e *ProximityEngine) startPresentation(m domain.ProximityMarker, pc ports.PresentContext) {
	if !e.presenting.TryAcquire() {
		return
	}
	go func() {
		defer e.presenting.Release()
		e.presentAndRecord(context.Background(), m, pc)
	}()
}

func (e *ProximityEngine) presentAndRecord(ctx context.Context, m domain.ProximityMarker, pc ports.PresentContext) {
	if err := e.presenter.Present(ctx, m, pc); err != nil {
		metrics.PresentationsTotal.WithLabelValues("error").Inc()
		e.log.Warn().Err(err).Str("marker_id", m.ID).Msg("presentation failed, marker remains eligible")
		return
	}
	metrics.PresentationsTotal.WithLabelValues("ok").Inc()
	e.log.Info().Str("marker_id", m.ID).Float64("distance_m", pc.DistanceM).Msg("marker presented")

	// Durable write, deliberately detached from the session lifetime.
	hctx, cancel := context.WithTimeout(context.Background(), e.cfg.HeardWriteTimeout)
	defer cancel()
	if err := e.heard.UpsertHeard(hctx, e.subjectID, m.ID); err != nil {
		e.log.Error().Err(err).Str("marker_id", m.ID).Msg("failed to persist heard record")
	}
}

// Replay deletes the heard record for (subject, marker) and re-presents the
// marker immediately, bypassing the dedup check exactly once. The marker is
// re-marked heard only if this presentation completes successfully.
func (e *ProximityEngine) Replay(ctx context.Context, markerID string) error {
	m, err := e.catalog.GetMarker(ctx, markerID)
	if err != nil {
		return err
	}
	if err := e.heard.DeleteHeard(ctx, e.subjectID, markerID); err != nil {
		return err
	}
	if !e.presenting.TryAcquire() {
		return domain.ErrPresentationBusy
	}
	defer e.presenting.Release()

	pc := ports.PresentContext{SubjectID: e.subjectID, DistanceM: e.replayDistance(m)}
	e.presentAndRecord(ctx, m, pc)
	return nil
}

// replayDistance attaches the distance from the last checked position when
// one exists; replays issued with no position history carry zero.
func (e *ProximityEngine) replayDistance(m domain.ProximityMarker) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastChecked == nil {
		return 0
	}
	return domain.HaversineMeters(*e.lastChecked, m.Center())
}
