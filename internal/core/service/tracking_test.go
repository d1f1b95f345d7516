package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

func newTestManager(factory SourceFactory) *Manager {
	return NewManager(ManagerDeps{
		Sources:    factory,
		Store:      &stubPositionStore{},
		Dispatcher: newStubDispatcher(nil),
	}, ManagerConfig{}, zerolog.Nop())
}

func gatedFactory(gate chan struct{}) SourceFactory {
	return func(string) ports.PositionSource {
		return &stubSource{gate: gate, reads: []readResult{{pos: pos(32.70, -96.80)}}}
	}
}

func TestManagerDuplicateStartWhileAcquiringRejected(t *testing.T) {
	gate := make(chan struct{})
	m := newTestManager(gatedFactory(gate))

	done := make(chan error, 1)
	go func() {
		_, err := m.Start(context.Background(), "truck-1")
		done <- err
	}()

	waitFor(t, func() bool {
		_, err := m.Status(context.Background(), "truck-1")
		return err == nil
	}, "run never registered")

	if _, err := m.Start(context.Background(), "truck-1"); !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("duplicate start must be rejected, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("winning start failed: %v", err)
	}
	defer m.Stop(context.Background(), "truck-1")

	snap, err := m.Status(context.Background(), "truck-1")
	if err != nil || !snap.Active {
		t.Fatalf("winning start should be tracking: %+v %v", snap, err)
	}
}

func TestManagerStopDuringAcquisitionWins(t *testing.T) {
	gate := make(chan struct{})
	m := newTestManager(gatedFactory(gate))

	done := make(chan error, 1)
	go func() {
		_, err := m.Start(context.Background(), "truck-1")
		done <- err
	}()

	waitFor(t, func() bool {
		snap, err := m.Status(context.Background(), "truck-1")
		return err == nil && snap.State == domain.StateAcquiring
	}, "machine never entered acquiring")

	if err := m.Stop(context.Background(), "truck-1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	close(gate)

	if err := <-done; !errors.Is(err, domain.ErrSessionStopped) {
		t.Fatalf("expected ErrSessionStopped, got %v", err)
	}
	snap, err := m.Status(context.Background(), "truck-1")
	if err != nil || snap.Active || snap.State != domain.StateStopped {
		t.Fatalf("session resurrected after stop: %+v %v", snap, err)
	}
}

func TestManagerRestartAfterStop(t *testing.T) {
	m := newTestManager(func(string) ports.PositionSource {
		return &stubSource{reads: []readResult{{pos: pos(32.70, -96.80)}}}
	})

	if _, err := m.Start(context.Background(), "truck-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(context.Background(), "truck-1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	snap, err := m.Start(context.Background(), "truck-1")
	if err != nil {
		t.Fatalf("restart after stop should build a fresh session: %v", err)
	}
	defer m.Stop(context.Background(), "truck-1")
	if !snap.Active || snap.State != domain.StateTracking {
		t.Fatalf("restarted session not tracking: %+v", snap)
	}
}
