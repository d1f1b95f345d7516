package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubPositionStore struct {
	mu        sync.Mutex
	written   []domain.PositionReport
	writeErrs []error // consumed in order; empty slice means success
	stored    *domain.PositionReport
	readCalls int
	readErr   error
}

func (s *stubPositionStore) WritePosition(_ context.Context, report domain.PositionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writeErrs) > 0 {
		err := s.writeErrs[0]
		s.writeErrs = s.writeErrs[1:]
		if err != nil {
			return err
		}
	}
	s.written = append(s.written, report)
	clone := report
	s.stored = &clone
	return nil
}

func (s *stubPositionStore) ReadPosition(_ context.Context, subjectID string) (domain.PositionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	if s.readErr != nil {
		return domain.PositionReport{}, s.readErr
	}
	if s.stored == nil {
		return domain.PositionReport{}, domain.ErrPositionNotFound
	}
	return *s.stored, nil
}

func (s *stubPositionStore) writtenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

type stubDispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
	done  chan struct{} // signalled once per Notify
}

func newStubDispatcher(err error) *stubDispatcher {
	return &stubDispatcher{err: err, done: make(chan struct{}, 16)}
}

func (d *stubDispatcher) Notify(_ context.Context, kind string, _ map[string]any) error {
	d.mu.Lock()
	d.calls = append(d.calls, kind)
	d.mu.Unlock()
	d.done <- struct{}{}
	return d.err
}

type stubBattery struct {
	pct int
	err error
}

func (b *stubBattery) BatteryPercent(_ context.Context) (int, error) { return b.pct, b.err }

// trackingTracker returns a tracker already in the tracking state with the
// given latest position, without running the acquisition protocol.
func trackingTracker(t *testing.T, p domain.DevicePosition) *Tracker {
	t.Helper()
	tr := NewTracker("truck-1", &stubSource{}, AcquisitionConfig{}, zerolog.Nop())
	tr.mu.Lock()
	tr.session.Active = true
	tr.session.State = domain.StateTracking
	tr.session.Mode = domain.ModeContinuous
	tr.latest = &p
	tr.mu.Unlock()
	return tr
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReporterSendOnceSuccess(t *testing.T) {
	store := &stubPositionStore{}
	dispatcher := newStubDispatcher(nil)
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, dispatcher, nil, ReportingConfig{VerifyEvery: 100}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)

	if store.writtenCount() != 1 {
		t.Fatalf("expected 1 write, got %d", store.writtenCount())
	}
	snap := tr.Snapshot()
	if snap.UpdatesSent != 1 {
		t.Fatalf("expected UpdatesSent 1, got %d", snap.UpdatesSent)
	}
	if snap.LastWriteOutcome != domain.OutcomeSuccess {
		t.Fatalf("expected success outcome, got %s", snap.LastWriteOutcome)
	}
	if snap.LastSentAt.IsZero() {
		t.Fatal("LastSentAt not recorded")
	}

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("secondary dispatch never fired")
	}
}

func TestReporterPrimaryFailureThenRecovery(t *testing.T) {
	store := &stubPositionStore{writeErrs: []error{errors.New("mongo down")}}
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, newStubDispatcher(nil), nil, ReportingConfig{VerifyEvery: 100}, zerolog.Nop())

	r.sendOnce(context.Background(), tr)
	snap := tr.Snapshot()
	if snap.UpdatesSent != 0 {
		t.Fatalf("failed write must not count as sent, got %d", snap.UpdatesSent)
	}
	if snap.LastWriteOutcome != domain.OutcomeError {
		t.Fatalf("expected error outcome, got %s", snap.LastWriteOutcome)
	}

	r.sendOnce(context.Background(), tr)
	snap = tr.Snapshot()
	if snap.UpdatesSent != 1 || snap.LastWriteOutcome != domain.OutcomeSuccess {
		t.Fatalf("next cycle should recover: sent=%d outcome=%s", snap.UpdatesSent, snap.LastWriteOutcome)
	}
}

func TestReporterSecondaryFailureIsolated(t *testing.T) {
	store := &stubPositionStore{}
	dispatcher := newStubDispatcher(errors.New("redis down"))
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, dispatcher, nil, ReportingConfig{VerifyEvery: 100}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("secondary dispatch never fired")
	}
	if tr.Snapshot().LastWriteOutcome != domain.OutcomeSuccess {
		t.Fatal("secondary failure leaked into the primary outcome")
	}
	if tr.Snapshot().UpdatesSent != 1 {
		t.Fatalf("expected UpdatesSent 1, got %d", tr.Snapshot().UpdatesSent)
	}
}

func TestReporterDerivedFields(t *testing.T) {
	store := &stubPositionStore{}
	speed := 10.0 // m/s, ~22.37 mph
	p := pos(32.7, -96.8)
	p.SpeedMps = &speed
	tr := trackingTracker(t, p)

	r := NewReporter(store, newStubDispatcher(nil), &stubBattery{pct: 81}, ReportingConfig{VerifyEvery: 100}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)

	store.mu.Lock()
	report := store.written[0]
	store.mu.Unlock()

	if report.SpeedMph == nil || *report.SpeedMph != 22 {
		t.Fatalf("expected rounded 22 mph, got %v", report.SpeedMph)
	}
	if report.BatteryPct == nil || *report.BatteryPct != 81 {
		t.Fatalf("expected battery 81, got %v", report.BatteryPct)
	}
	if report.ReportedAt.IsZero() {
		t.Fatal("ReportedAt not stamped")
	}
}

func TestReporterReadBackCadence(t *testing.T) {
	store := &stubPositionStore{}
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, newStubDispatcher(nil), nil, ReportingConfig{VerifyEvery: 2}, zerolog.Nop())

	r.sendOnce(context.Background(), tr) // sent=1, no verify
	store.mu.Lock()
	after1 := store.readCalls
	store.mu.Unlock()
	if after1 != 0 {
		t.Fatalf("verify ran early: %d reads", after1)
	}

	r.sendOnce(context.Background(), tr) // sent=2, verify
	store.mu.Lock()
	after2 := store.readCalls
	store.mu.Unlock()
	if after2 != 1 {
		t.Fatalf("expected 1 read-back after second send, got %d", after2)
	}
}

func TestReporterOutcomeResetsToIdle(t *testing.T) {
	store := &stubPositionStore{}
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, newStubDispatcher(nil), nil, ReportingConfig{
		StatusResetAfter: 10 * time.Millisecond,
		VerifyEvery:      100,
	}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)

	waitFor(t, func() bool {
		return tr.Snapshot().LastWriteOutcome == domain.OutcomeIdle
	}, "outcome never returned to idle")
}

func TestReporterOutcomeResetSkippedAfterStop(t *testing.T) {
	store := &stubPositionStore{}
	tr := trackingTracker(t, pos(32.7, -96.8))

	r := NewReporter(store, newStubDispatcher(nil), nil, ReportingConfig{
		StatusResetAfter: 10 * time.Millisecond,
		VerifyEvery:      100,
	}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)
	tr.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := tr.Snapshot().LastWriteOutcome; got != domain.OutcomeSuccess {
		t.Fatalf("reset timer mutated a stopped session: %s", got)
	}
}

func TestReporterSkipsWhenStopped(t *testing.T) {
	store := &stubPositionStore{}
	tr := trackingTracker(t, pos(32.7, -96.8))
	tr.Stop()

	r := NewReporter(store, newStubDispatcher(nil), nil, ReportingConfig{}, zerolog.Nop())
	r.sendOnce(context.Background(), tr)

	if store.writtenCount() != 0 {
		t.Fatal("stopped session must not report")
	}
}
