package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// AcquisitionConfig tunes the tiered acquisition protocol. Zero values fall
// back to the defaults below.
type AcquisitionConfig struct {
	// FirstReadTimeout bounds the initial high-accuracy read.
	FirstReadTimeout time.Duration
	// ProbeTimeout and ProbeMaxAge tune the single low-accuracy
	// disambiguation probe issued after a transient-looking permission denial.
	ProbeTimeout time.Duration
	ProbeMaxAge  time.Duration
	// FallbackTimeout bounds the low-accuracy retry after unavailable/timeout,
	// and each timer-driven polling read.
	FallbackTimeout time.Duration
	// WatchTimeout / WatchMaxAge tune the continuous subscription.
	WatchTimeout time.Duration
	WatchMaxAge  time.Duration
	// WatchdogAfter is how long the continuous subscription may stay silent
	// before the session falls back to polling.
	WatchdogAfter time.Duration
	// PollInterval is the cadence of polling-mode reads.
	PollInterval time.Duration
}

func (c AcquisitionConfig) withDefaults() AcquisitionConfig {
	if c.FirstReadTimeout <= 0 {
		c.FirstReadTimeout = 15 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.ProbeMaxAge <= 0 {
		c.ProbeMaxAge = 10 * time.Minute
	}
	if c.FallbackTimeout <= 0 {
		c.FallbackTimeout = 10 * time.Second
	}
	if c.WatchTimeout <= 0 {
		c.WatchTimeout = 30 * time.Second
	}
	if c.WatchMaxAge <= 0 {
		c.WatchMaxAge = 15 * time.Second
	}
	if c.WatchdogAfter <= 0 {
		c.WatchdogAfter = 15 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	return c
}

// Tracker is the position acquisition state machine for one subject. It
// obtains a first usable position through tiered fallbacks, keeps it fresh
// through a continuous subscription (degrading to timer polling when the
// subscription stalls), and owns the session's "latest position" value.
//
// A Tracker is independently constructible and disposable; all timers and
// guard flags live on the value, never at package level.
type Tracker struct {
	subjectID string
	source    ports.PositionSource
	cfg       AcquisitionConfig
	log       zerolog.Logger

	// onPosition, when set before Start, is invoked for every accepted
	// reading after the latest-position value has been updated.
	onPosition func(domain.DevicePosition)

	mu      sync.Mutex
	session domain.TrackingSession
	latest  *domain.DevicePosition
	cancel  context.CancelFunc
}

// NewTracker builds a Tracker in the idle state.
func NewTracker(subjectID string, source ports.PositionSource, cfg AcquisitionConfig, log zerolog.Logger) *Tracker {
	return &Tracker{
		subjectID: subjectID,
		source:    source,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("subject_id", subjectID).Logger(),
		session: domain.TrackingSession{
			SubjectID:        subjectID,
			State:            domain.StateIdle,
			LastWriteOutcome: domain.OutcomeIdle,
		},
	}
}

// OnPosition registers a callback for accepted readings. Must be called
// before Start.
func (t *Tracker) OnPosition(fn func(domain.DevicePosition)) { t.onPosition = fn }

// SubjectID returns the subject this tracker serves.
func (t *Tracker) SubjectID() string { return t.subjectID }

// Start runs the tiered first acquisition and, on success, transitions to
// tracking(continuous) with the watchdog armed. On failure it returns a
// classified acquisition error and the machine ends in the errored state;
// a later Start carries no memory of the failure. A stopped machine never
// restarts: Stop wins over an in-flight Start, and each new session gets a
// fresh Tracker.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.session.Active {
		t.mu.Unlock()
		return domain.ErrSessionActive
	}
	if t.session.State == domain.StateStopped {
		t.mu.Unlock()
		return domain.ErrSessionStopped
	}
	t.session.State = domain.StateAcquiring
	t.mu.Unlock()

	pos, err := t.acquireFirst(ctx)

	t.mu.Lock()
	if t.session.State != domain.StateAcquiring {
		// Stop raced the first acquisition; the session stays stopped and
		// the reading, if any, is discarded.
		t.mu.Unlock()
		return domain.ErrSessionStopped
	}
	if err != nil {
		t.session.State = domain.StateErrored
		t.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.session.Active = true
	t.session.State = domain.StateTracking
	t.session.Mode = domain.ModeContinuous
	t.latest = &pos
	t.mu.Unlock()

	t.log.Info().
		Float64("lat", pos.Lat).
		Float64("lng", pos.Lng).
		Float64("accuracy_m", pos.AccuracyM).
		Msg("first position acquired, tracking continuous")

	go t.runContinuous(runCtx)
	return nil
}

// Stop cancels the subscription and all timers and transitions to stopped.
// Safe to call from any state, any number of times. In-flight continuations
// observe the inactive session and no-op; stopped is terminal for this
// machine.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.session.Active = false
	t.session.State = domain.StateStopped
	t.mu.Unlock()
}

// Running reports whether the session is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Active
}

// Snapshot returns a copy of the session state.
func (t *Tracker) Snapshot() domain.TrackingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Latest returns the most recent accepted position, if any.
func (t *Tracker) Latest() (domain.DevicePosition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		return domain.DevicePosition{}, false
	}
	return *t.latest, true
}

// acquireFirst implements steps 1-3 of the protocol: high-accuracy read, the
// permission disambiguation probe, and the low-accuracy fallback.
func (t *Tracker) acquireFirst(ctx context.Context) (domain.DevicePosition, error) {
	pos, err := t.source.ReadOnce(ctx, ports.ReadOptions{
		HighAccuracy: true,
		Timeout:      t.cfg.FirstReadTimeout,
	})
	if err == nil {
		return pos, nil
	}

	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		if t.source.ProbeOnDenied() {
			probe, perr := t.source.ReadOnce(ctx, ports.ReadOptions{
				Timeout: t.cfg.ProbeTimeout,
				MaxAge:  t.cfg.ProbeMaxAge,
			})
			if perr == nil {
				t.log.Info().Msg("permission denial disambiguated by low-accuracy probe")
				return probe, nil
			}
		}
		return domain.DevicePosition{}, domain.ClassifyAcquisition(domain.ErrPermissionDenied, err)

	case errors.Is(err, domain.ErrUnsupported):
		return domain.DevicePosition{}, domain.ClassifyAcquisition(domain.ErrUnsupported, err)

	case errors.Is(err, domain.ErrInsecureContext):
		return domain.DevicePosition{}, domain.ClassifyAcquisition(domain.ErrInsecureContext, err)
	}

	// Unavailable or timed out: one low-accuracy attempt before giving up.
	t.log.Debug().Err(err).Msg("high-accuracy read failed, retrying low accuracy")
	pos, rerr := t.source.ReadOnce(ctx, ports.ReadOptions{Timeout: t.cfg.FallbackTimeout})
	if rerr == nil {
		return pos, nil
	}
	return domain.DevicePosition{}, classifyFallback(rerr)
}

// classifyFallback maps the final failed attempt to its classification,
// defaulting to position-unavailable for unrecognised source errors.
func classifyFallback(err error) error {
	for _, class := range []error{
		domain.ErrPermissionDenied,
		domain.ErrAcquisitionTimeout,
		domain.ErrUnsupported,
		domain.ErrInsecureContext,
	} {
		if errors.Is(err, class) {
			return domain.ClassifyAcquisition(class, err)
		}
	}
	return domain.ClassifyAcquisition(domain.ErrPositionUnavailable, err)
}

// runContinuous holds the continuous subscription (step 4) and arms the
// one-shot watchdog. Any subscription failure, or watchdog expiry with zero
// deliveries, degrades the session to polling (step 5) without surfacing an
// error to the caller.
func (t *Tracker) runContinuous(ctx context.Context) {
	watch, err := t.source.Watch(ctx, ports.WatchOptions{
		HighAccuracy: true,
		Timeout:      t.cfg.WatchTimeout,
		MaxAge:       t.cfg.WatchMaxAge,
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("continuous subscription unavailable, polling instead")
		t.runPolling(ctx)
		return
	}

	watchdog := time.NewTimer(t.cfg.WatchdogAfter)
	defer watchdog.Stop()
	delivered := false

	for {
		select {
		case <-ctx.Done():
			watch.Stop()
			return

		case pos, ok := <-watch.Updates():
			if !ok {
				watch.Stop()
				t.log.Warn().Msg("continuous subscription ended, falling back to polling")
				t.runPolling(ctx)
				return
			}
			delivered = true
			t.accept(pos)

		case werr, ok := <-watch.Errors():
			if ok && werr != nil {
				t.log.Warn().Err(werr).Msg("continuous subscription errored, falling back to polling")
			}
			watch.Stop()
			t.runPolling(ctx)
			return

		case <-watchdog.C:
			if !delivered {
				t.log.Warn().
					Dur("watchdog", t.cfg.WatchdogAfter).
					Msg("no continuous update within watchdog window, falling back to polling")
				watch.Stop()
				t.runPolling(ctx)
				return
			}
		}
	}
}

// runPolling issues a low-accuracy read immediately, then on every tick for
// as long as the session is active.
func (t *Tracker) runPolling(ctx context.Context) {
	t.mu.Lock()
	if !t.session.Active {
		t.mu.Unlock()
		return
	}
	t.session.Mode = domain.ModePolling
	t.mu.Unlock()

	t.pollOnce(ctx)

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.pollOnce(ctx)
		}
	}
}

func (t *Tracker) pollOnce(ctx context.Context) {
	if !t.Running() {
		return
	}
	pos, err := t.source.ReadOnce(ctx, ports.ReadOptions{Timeout: t.cfg.FallbackTimeout})
	if err != nil {
		// Next tick retries; polling-mode read failures are not terminal.
		t.log.Debug().Err(err).Msg("polling read failed")
		return
	}
	t.accept(pos)
}

// accept records a successful reading as the latest position. Readings
// arriving after Stop are dropped so a cancelled subscription can never
// resurrect a dead session.
func (t *Tracker) accept(pos domain.DevicePosition) {
	t.mu.Lock()
	if !t.session.Active {
		t.mu.Unlock()
		return
	}
	t.latest = &pos
	fn := t.onPosition
	t.mu.Unlock()

	if fn != nil {
		fn(pos)
	}
}

// --- Reporting-pipeline session mutations ---
// The acquisition/reporting pair jointly own the TrackingSession; these are
// the only mutation points the reporter uses.

func (t *Tracker) beginWrite() {
	t.mu.Lock()
	if t.session.Active {
		t.session.LastWriteOutcome = domain.OutcomeWriting
	}
	t.mu.Unlock()
}

// finishWrite records the outcome of the primary write. Successful sends
// increment UpdatesSent; the counter never decrements.
func (t *Tracker) finishWrite(success bool, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.session.Active {
		return
	}
	if success {
		t.session.LastWriteOutcome = domain.OutcomeSuccess
		t.session.UpdatesSent++
		t.session.LastSentAt = at
	} else {
		t.session.LastWriteOutcome = domain.OutcomeError
	}
}

// resetWriteOutcome returns the displayed outcome to idle unless another
// write has started in the meantime or the session has stopped.
func (t *Tracker) resetWriteOutcome() {
	t.mu.Lock()
	if t.session.Active && t.session.LastWriteOutcome != domain.OutcomeWriting {
		t.session.LastWriteOutcome = domain.OutcomeIdle
	}
	t.mu.Unlock()
}

func (t *Tracker) updatesSent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.UpdatesSent
}
