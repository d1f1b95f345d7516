package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/api/metrics"
	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// ReportingConfig tunes the reporting cadence and the read-back verification.
// VerifyEvery and VerifyEpsilonDeg are deliberately tunable: the defaults
// conserve bandwidth, they are not a compatibility contract.
type ReportingConfig struct {
	Interval         time.Duration
	InitialDelay     time.Duration
	WriteTimeout     time.Duration
	StatusResetAfter time.Duration
	VerifyEvery      int
	VerifyEpsilonDeg float64
}

func (c ReportingConfig) withDefaults() ReportingConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 2 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.StatusResetAfter <= 0 {
		c.StatusResetAfter = 3 * time.Second
	}
	if c.VerifyEvery <= 0 {
		c.VerifyEvery = 5
	}
	if c.VerifyEpsilonDeg <= 0 {
		c.VerifyEpsilonDeg = 1e-4
	}
	return c
}

// Reporter delivers the latest acquired position to the durable store on a
// fixed cadence. The primary write and the secondary side-effect dispatch are
// causally independent: a slow or failing secondary can never affect the
// primary outcome, and a failed primary is simply retried by the next tick
// with a fresher position.
type Reporter struct {
	store      ports.PositionStore
	dispatcher ports.SideEffectDispatcher
	battery    ports.BatteryProber
	cfg        ReportingConfig
	log        zerolog.Logger
}

// NewReporter builds a Reporter. battery may be nil; the field is then
// omitted from reports.
func NewReporter(store ports.PositionStore, dispatcher ports.SideEffectDispatcher, battery ports.BatteryProber, cfg ReportingConfig, log zerolog.Logger) *Reporter {
	return &Reporter{
		store:      store,
		dispatcher: dispatcher,
		battery:    battery,
		cfg:        cfg.withDefaults(),
		log:        log,
	}
}

// Run drives the cadence for one tracker: an early send shortly after
// tracking starts, then one per interval, until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context, tracker *Tracker) {
	first := time.NewTimer(r.cfg.InitialDelay)
	defer first.Stop()
	select {
	case <-ctx.Done():
		return
	case <-first.C:
		r.sendOnce(ctx, tracker)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sendOnce(ctx, tracker)
		}
	}
}

// sendOnce performs one reporting cycle: derive auxiliary fields, primary
// write, fire-and-forget secondary dispatch, and the periodic read-back.
func (r *Reporter) sendOnce(ctx context.Context, tracker *Tracker) {
	if !tracker.Running() {
		return
	}
	pos, ok := tracker.Latest()
	if !ok {
		return
	}

	report := r.buildReport(ctx, tracker.SubjectID(), pos)

	tracker.beginWrite()

	// Secondary side effect (geofence evaluation / history): best-effort,
	// never awaited, log-only on failure.
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
		defer cancel()
		if err := r.dispatcher.Notify(nctx, "position", sideEffectPayload(report)); err != nil {
			r.log.Warn().Err(err).Str("subject_id", report.SubjectID).Msg("side-effect dispatch failed")
		}
	}()

	wctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()
	err := r.store.WritePosition(wctx, report)
	if err != nil {
		r.log.Error().Err(err).Str("subject_id", report.SubjectID).Msg("primary position write failed")
		tracker.finishWrite(false, report.ReportedAt)
		metrics.PositionsReportedTotal.WithLabelValues("error").Inc()
	} else {
		tracker.finishWrite(true, report.ReportedAt)
		metrics.PositionsReportedTotal.WithLabelValues("success").Inc()
	}

	// Transient outcomes must not stick in the UI layer indefinitely.
	time.AfterFunc(r.cfg.StatusResetAfter, tracker.resetWriteOutcome)

	if err == nil && tracker.updatesSent()%r.cfg.VerifyEvery == 0 {
		r.verify(ctx, report)
	}
}

func (r *Reporter) buildReport(ctx context.Context, subjectID string, pos domain.DevicePosition) domain.PositionReport {
	report := domain.PositionReport{
		DevicePosition: pos,
		SubjectID:      subjectID,
		ReportedAt:     time.Now().UTC(),
	}
	if pos.SpeedMps != nil {
		mph := math.Round(domain.MpsToMph(*pos.SpeedMps))
		report.SpeedMph = &mph
	}
	if r.battery != nil {
		bctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pct, err := r.battery.BatteryPercent(bctx)
		cancel()
		if err == nil {
			report.BatteryPct = &pct
		}
	}
	return report
}

// verify reads back the just-written record and compares coordinates within
// the epsilon. Divergence means the secondary/legacy path corrupted the
// primary write; the write itself still counts as a success, only the value
// is suspect, so the mismatch is a warning.
func (r *Reporter) verify(ctx context.Context, sent domain.PositionReport) {
	rctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	got, err := r.store.ReadPosition(rctx, sent.SubjectID)
	if err != nil {
		r.log.Debug().Err(err).Str("subject_id", sent.SubjectID).Msg("read-back verification unavailable")
		return
	}
	if math.Abs(got.Lat-sent.Lat) > r.cfg.VerifyEpsilonDeg || math.Abs(got.Lng-sent.Lng) > r.cfg.VerifyEpsilonDeg {
		metrics.PositionVerifyMismatchTotal.Inc()
		r.log.Warn().
			Str("subject_id", sent.SubjectID).
			Float64("sent_lat", sent.Lat).
			Float64("sent_lng", sent.Lng).
			Float64("stored_lat", got.Lat).
			Float64("stored_lng", got.Lng).
			Msg("read-back mismatch: stored position diverges from sent position")
	}
}

func sideEffectPayload(report domain.PositionReport) map[string]any {
	payload := map[string]any{
		"subject_id":  report.SubjectID,
		"lat":         report.Lat,
		"lng":         report.Lng,
		"accuracy_m":  report.AccuracyM,
		"reported_at": report.ReportedAt,
	}
	if report.SpeedMph != nil {
		payload["speed_mph"] = *report.SpeedMph
	}
	if report.BatteryPct != nil {
		payload["battery_pct"] = *report.BatteryPct
	}
	return payload
}
