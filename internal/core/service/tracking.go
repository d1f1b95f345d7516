package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// SourceFactory supplies the position source for a subject. The ingest
// registry implements this for remotely reporting devices; tests supply
// fakes.
type SourceFactory func(subjectID string) ports.PositionSource

// PositionSubmitter routes an externally reported position to the subject's
// live source.
type PositionSubmitter interface {
	Submit(subjectID string, pos domain.DevicePosition) error
}

// ManagerDeps collects the collaborators the Manager wires into each
// session.
type ManagerDeps struct {
	Sources    SourceFactory
	Submitter  PositionSubmitter // may be nil when positions only come from local sources
	Store      ports.PositionStore
	Dispatcher ports.SideEffectDispatcher
	Battery    ports.BatteryProber // may be nil
	Catalog    ports.MarkerCatalog
	Heard      ports.HeardStore
	Presenter  ports.Presenter
}

// ManagerConfig aggregates the per-component tuning.
type ManagerConfig struct {
	Acquisition AcquisitionConfig
	Reporting   ReportingConfig
	Proximity   ProximityConfig
	// ProximityEnabled gates the detection engine entirely.
	ProximityEnabled bool
}

// Manager owns one tracking session per subject: the acquisition machine,
// its reporting pipeline, and its proximity engine share a lifetime and are
// torn down together on Stop.
type Manager struct {
	deps ManagerDeps
	cfg  ManagerConfig
	log  zerolog.Logger

	mu   sync.Mutex
	runs map[string]*subjectRun
}

type subjectRun struct {
	tracker *Tracker
	engine  *ProximityEngine
	cancel  context.CancelFunc

	// starting is true from registration until the tracker's Start returns,
	// guarded by Manager.mu, so a duplicate Start for the subject is rejected
	// before the first acquisition finishes.
	starting bool
}

// NewManager builds a Manager.
func NewManager(deps ManagerDeps, cfg ManagerConfig, log zerolog.Logger) *Manager {
	return &Manager{
		deps: deps,
		cfg:  cfg,
		log:  log,
		runs: map[string]*subjectRun{},
	}
}

// Start begins acquisition for the subject and, on success, launches the
// reporting cadence and wires the proximity engine to the position stream.
// The run is registered before acquisition begins so remotely submitted
// positions can satisfy the first read; a concurrent Start for the same
// subject is rejected for as long as the registered run is starting or
// active, and a Stop issued mid-acquisition wins over the Start.
func (m *Manager) Start(ctx context.Context, subjectID string) (domain.TrackingSession, error) {
	tracker := NewTracker(subjectID, m.deps.Sources(subjectID), m.cfg.Acquisition, m.log)

	runCtx, cancel := context.WithCancel(context.Background())
	var engine *ProximityEngine
	if m.cfg.ProximityEnabled {
		engine = NewProximityEngine(subjectID, m.deps.Catalog, m.deps.Heard, m.deps.Presenter, m.cfg.Proximity, m.log)
		tracker.OnPosition(func(pos domain.DevicePosition) {
			go engine.Check(runCtx, pos)
		})
	}
	run := &subjectRun{tracker: tracker, engine: engine, cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.runs[subjectID]; ok {
		if prev.starting || prev.tracker.Running() {
			m.mu.Unlock()
			cancel()
			return domain.TrackingSession{}, domain.ErrSessionActive
		}
	}
	run.starting = true
	m.runs[subjectID] = run
	m.mu.Unlock()

	err := tracker.Start(ctx)
	m.mu.Lock()
	run.starting = false
	m.mu.Unlock()
	if err != nil {
		cancel()
		return domain.TrackingSession{}, err
	}

	reporter := NewReporter(m.deps.Store, m.deps.Dispatcher, m.deps.Battery, m.cfg.Reporting, m.log)
	go reporter.Run(runCtx, tracker)

	return tracker.Snapshot(), nil
}

// Stop ends the subject's session. Idempotent for a known subject.
func (m *Manager) Stop(ctx context.Context, subjectID string) error {
	m.mu.Lock()
	run, ok := m.runs[subjectID]
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	run.tracker.Stop()
	run.cancel()
	return nil
}

// Status returns a snapshot of the subject's session.
func (m *Manager) Status(ctx context.Context, subjectID string) (domain.TrackingSession, error) {
	m.mu.Lock()
	run, ok := m.runs[subjectID]
	m.mu.Unlock()
	if !ok {
		return domain.TrackingSession{}, domain.ErrSessionNotFound
	}
	return run.tracker.Snapshot(), nil
}

// Submit feeds an externally reported position into the subject's session.
// Submissions are accepted from the moment Start registers the run, so the
// first report can satisfy the acquisition read.
func (m *Manager) Submit(ctx context.Context, subjectID string, pos domain.DevicePosition) error {
	m.mu.Lock()
	_, ok := m.runs[subjectID]
	m.mu.Unlock()
	if !ok || m.deps.Submitter == nil {
		return domain.ErrSessionNotFound
	}
	return m.deps.Submitter.Submit(subjectID, pos)
}

// Replay clears the heard record for (subject, marker) and re-presents the
// marker once. It works with or without a live session; a live session's
// engine is used when present so its single-flight lock is respected.
func (m *Manager) Replay(ctx context.Context, subjectID, markerID string) error {
	m.mu.Lock()
	run, ok := m.runs[subjectID]
	m.mu.Unlock()

	engine := (*ProximityEngine)(nil)
	if ok && run.engine != nil {
		engine = run.engine
	} else {
		engine = NewProximityEngine(subjectID, m.deps.Catalog, m.deps.Heard, m.deps.Presenter, m.cfg.Proximity, m.log)
	}
	return engine.Replay(ctx, markerID)
}
