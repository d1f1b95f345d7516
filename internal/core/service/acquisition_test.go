package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub position source
// ---------------------------------------------------------------------------

type readResult struct {
	pos domain.DevicePosition
	err error
}

type stubSource struct {
	mu       sync.Mutex
	reads    []readResult        // consumed in order by ReadOnce
	readOpts []ports.ReadOptions // every ReadOnce call, in order
	probe    bool
	watchErr error
	watch    *stubWatch
	gate     chan struct{}       // when set, ReadOnce blocks until it is closed
}

func (s *stubSource) ReadOnce(_ context.Context, opts ports.ReadOptions) (domain.DevicePosition, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOpts = append(s.readOpts, opts)
	if len(s.reads) == 0 {
		return domain.DevicePosition{}, domain.ErrPositionUnavailable
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return r.pos, r.err
}

func (s *stubSource) Watch(_ context.Context, _ ports.WatchOptions) (ports.PositionWatch, error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	if s.watch == nil {
		s.watch = newStubWatch()
	}
	return s.watch, nil
}

func (s *stubSource) ProbeOnDenied() bool { return s.probe }

func (s *stubSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readOpts)
}

type stubWatch struct {
	updates chan domain.DevicePosition
	errs    chan error
	once    sync.Once
}

func newStubWatch() *stubWatch {
	return &stubWatch{
		updates: make(chan domain.DevicePosition, 8),
		errs:    make(chan error, 1),
	}
}

func (w *stubWatch) Updates() <-chan domain.DevicePosition { return w.updates }
func (w *stubWatch) Errors() <-chan error                  { return w.errs }
func (w *stubWatch) Stop() {
	w.once.Do(func() {
		close(w.updates)
		close(w.errs)
	})
}

func pos(lat, lng float64) domain.DevicePosition {
	return domain.DevicePosition{Lat: lat, Lng: lng, AccuracyM: 5, CapturedAt: time.Now()}
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTrackerStartHighAccuracySuccess(t *testing.T) {
	src := &stubSource{reads: []readResult{{pos: pos(32.7, -96.8)}}}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := tr.Snapshot()
	if snap.State != domain.StateTracking || snap.Mode != domain.ModeContinuous {
		t.Fatalf("expected tracking/continuous, got %s/%s", snap.State, snap.Mode)
	}
	got, ok := tr.Latest()
	if !ok || got.Lat != 32.7 {
		t.Fatalf("latest position not recorded: %+v ok=%v", got, ok)
	}

	src.mu.Lock()
	firstOpts := src.readOpts[0]
	src.mu.Unlock()
	if !firstOpts.HighAccuracy {
		t.Fatal("first read must request high accuracy")
	}
}

func TestTrackerPermissionDeniedIsTerminalWithoutProbe(t *testing.T) {
	src := &stubSource{reads: []readResult{{err: domain.ErrPermissionDenied}}}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())

	err := tr.Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	class, ok := domain.AcquisitionClass(err)
	if !ok || class != "permission-denied" {
		t.Fatalf("expected permission-denied classification, got %q ok=%v", class, ok)
	}
	if src.readCount() != 1 {
		t.Fatalf("no probe expected, got %d reads", src.readCount())
	}
	if tr.Snapshot().State != domain.StateErrored {
		t.Fatalf("expected errored state, got %s", tr.Snapshot().State)
	}
}

func TestTrackerPermissionDeniedProbeRecovers(t *testing.T) {
	src := &stubSource{
		probe: true,
		reads: []readResult{
			{err: domain.ErrPermissionDenied},
			{pos: pos(32.7, -96.8)},
		},
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("probe should have recovered the denial: %v", err)
	}

	src.mu.Lock()
	probeOpts := src.readOpts[1]
	src.mu.Unlock()
	if probeOpts.HighAccuracy {
		t.Fatal("probe must be low accuracy")
	}
	if probeOpts.MaxAge <= 0 {
		t.Fatal("probe must accept a cached reading")
	}
}

func TestTrackerUnavailableFallsBackToLowAccuracy(t *testing.T) {
	src := &stubSource{
		reads: []readResult{
			{err: domain.ErrPositionUnavailable},
			{pos: pos(30.26, -97.74)},
		},
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("fallback read should have succeeded: %v", err)
	}

	src.mu.Lock()
	fallbackOpts := src.readOpts[1]
	src.mu.Unlock()
	if fallbackOpts.HighAccuracy {
		t.Fatal("fallback read must be low accuracy")
	}
}

func TestTrackerBothAttemptsFailClassified(t *testing.T) {
	src := &stubSource{
		reads: []readResult{
			{err: domain.ErrAcquisitionTimeout},
			{err: domain.ErrAcquisitionTimeout},
		},
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())

	err := tr.Start(context.Background())
	if !errors.Is(err, domain.ErrAcquisitionTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	if !domain.RetryableAcquisition(err) {
		t.Fatal("timeout must be retryable")
	}
}

func TestTrackerWatchdogFallsBackToPolling(t *testing.T) {
	src := &stubSource{
		reads: []readResult{
			{pos: pos(32.70, -96.80)}, // first acquisition
			{pos: pos(32.71, -96.81)}, // first polling read
		},
		watch: newStubWatch(), // never delivers
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{
		WatchdogAfter: 20 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	}, zerolog.Nop())
	defer tr.Stop()

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return tr.Snapshot().Mode == domain.ModePolling
	}, "session never degraded to polling")
	waitFor(t, func() bool {
		got, _ := tr.Latest()
		return got.Lat == 32.71
	}, "polling read never accepted")
}

func TestTrackerWatchUpdatesAccepted(t *testing.T) {
	watch := newStubWatch()
	src := &stubSource{
		reads: []readResult{{pos: pos(32.70, -96.80)}},
		watch: watch,
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{WatchdogAfter: time.Minute}, zerolog.Nop())
	defer tr.Stop()

	var seen []domain.DevicePosition
	var mu sync.Mutex
	tr.OnPosition(func(p domain.DevicePosition) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	watch.updates <- pos(32.72, -96.82)
	waitFor(t, func() bool {
		got, _ := tr.Latest()
		return got.Lat == 32.72
	}, "watch update never accepted")

	mu.Lock()
	n := len(seen)
	mu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 position callback, got %d", n)
	}
}

func TestTrackerStopDropsLateReadings(t *testing.T) {
	src := &stubSource{reads: []readResult{{pos: pos(32.70, -96.80)}}}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Stop()
	tr.Stop() // idempotent

	tr.accept(pos(40.0, -74.0))

	got, _ := tr.Latest()
	if got.Lat != 32.70 {
		t.Fatalf("late reading resurrected a stopped session: %+v", got)
	}
	if tr.Snapshot().State != domain.StateStopped {
		t.Fatalf("expected stopped, got %s", tr.Snapshot().State)
	}
}

func TestTrackerStopDuringFirstAcquisitionWins(t *testing.T) {
	gate := make(chan struct{})
	src := &stubSource{gate: gate, reads: []readResult{{pos: pos(32.70, -96.80)}}}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- tr.Start(context.Background()) }()

	waitFor(t, func() bool {
		return tr.Snapshot().State == domain.StateAcquiring
	}, "machine never entered acquiring")
	tr.Stop()
	close(gate)

	if err := <-done; !errors.Is(err, domain.ErrSessionStopped) {
		t.Fatalf("expected ErrSessionStopped, got %v", err)
	}
	snap := tr.Snapshot()
	if snap.Active || snap.State != domain.StateStopped {
		t.Fatalf("session resurrected after Stop: active=%v state=%s", snap.Active, snap.State)
	}
	if _, ok := tr.Latest(); ok {
		t.Fatal("reading completed after Stop must be discarded")
	}
}

func TestTrackerStartAfterStopRejected(t *testing.T) {
	src := &stubSource{reads: []readResult{{pos: pos(32.70, -96.80)}}}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Stop()

	if err := tr.Start(context.Background()); !errors.Is(err, domain.ErrSessionStopped) {
		t.Fatalf("a stopped machine must not restart, got %v", err)
	}
	if tr.Snapshot().State != domain.StateStopped {
		t.Fatalf("expected stopped, got %s", tr.Snapshot().State)
	}
}

func TestTrackerRestartAfterErrorAllowed(t *testing.T) {
	src := &stubSource{
		reads: []readResult{
			{err: domain.ErrPositionUnavailable},
			{err: domain.ErrPositionUnavailable},
			{pos: pos(32.70, -96.80)},
		},
	}
	tr := NewTracker("truck-1", src, AcquisitionConfig{}, zerolog.Nop())
	defer tr.Stop()

	if err := tr.Start(context.Background()); err == nil {
		t.Fatal("first start should fail")
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("restart after failure should carry no memory: %v", err)
	}
}
