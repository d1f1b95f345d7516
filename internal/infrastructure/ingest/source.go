// Package ingest adapts remotely reported positions into the acquisition
// machine's PositionSource contract: devices report over HTTP instead of a
// local location API, and each subject's RemoteSource replays those reports
// to pending reads and continuous watches.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

const defaultReadTimeout = 15 * time.Second

// Registry hands out one RemoteSource per subject and routes submissions to
// it. It implements service.SourceFactory (via SourceFor) and
// service.PositionSubmitter.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*RemoteSource
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]*RemoteSource{}}
}

// SourceFor returns a fresh RemoteSource for the subject, replacing any
// previous one (a new session supersedes the old source).
func (r *Registry) SourceFor(subjectID string) ports.PositionSource {
	src := newRemoteSource()
	r.mu.Lock()
	r.sources[subjectID] = src
	r.mu.Unlock()
	return src
}

// Submit routes an externally reported position to the subject's source.
func (r *Registry) Submit(subjectID string, pos domain.DevicePosition) error {
	r.mu.Lock()
	src, ok := r.sources[subjectID]
	r.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	src.submit(pos)
	return nil
}

// RemoteSource is a PositionSource fed by submitted positions. ReadOnce
// waits for the next submission (or serves a cached one within MaxAge);
// Watch streams submissions as they arrive.
type RemoteSource struct {
	mu      sync.Mutex
	last    *domain.DevicePosition
	lastAt  time.Time
	waiters []chan domain.DevicePosition
	watches map[*remoteWatch]struct{}
}

func newRemoteSource() *RemoteSource {
	return &RemoteSource{watches: map[*remoteWatch]struct{}{}}
}

func (s *RemoteSource) submit(pos domain.DevicePosition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &pos
	s.lastAt = time.Now()

	for _, ch := range s.waiters {
		ch <- pos // buffered, one slot per waiter
	}
	s.waiters = nil

	for w := range s.watches {
		select {
		case w.updates <- pos:
		default:
		}
	}
}

// ReadOnce returns a cached position within MaxAge when allowed, otherwise
// waits for the next submission up to the read timeout. Remote devices
// cannot signal accuracy tiers, so HighAccuracy is advisory here.
func (s *RemoteSource) ReadOnce(ctx context.Context, opts ports.ReadOptions) (domain.DevicePosition, error) {
	s.mu.Lock()
	if opts.MaxAge > 0 && s.last != nil && time.Since(s.lastAt) <= opts.MaxAge {
		pos := *s.last
		s.mu.Unlock()
		return pos, nil
	}
	ch := make(chan domain.DevicePosition, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pos := <-ch:
		return pos, nil
	case <-timer.C:
		s.dropWaiter(ch)
		return domain.DevicePosition{}, domain.ClassifyAcquisition(domain.ErrAcquisitionTimeout, nil)
	case <-ctx.Done():
		s.dropWaiter(ch)
		return domain.DevicePosition{}, domain.ClassifyAcquisition(domain.ErrAcquisitionTimeout, ctx.Err())
	}
}

// Watch registers a continuous subscription over submitted positions.
func (s *RemoteSource) Watch(ctx context.Context, opts ports.WatchOptions) (ports.PositionWatch, error) {
	w := &remoteWatch{
		src:     s,
		updates: make(chan domain.DevicePosition, 8),
		errs:    make(chan error, 1),
	}
	s.mu.Lock()
	s.watches[w] = struct{}{}
	s.mu.Unlock()
	return w, nil
}

// ProbeOnDenied is false: a remote client reports denial authoritatively,
// there is no transient platform quirk to disambiguate server-side.
func (s *RemoteSource) ProbeOnDenied() bool { return false }

func (s *RemoteSource) dropWaiter(ch chan domain.DevicePosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.waiters {
		if c == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

type remoteWatch struct {
	src     *RemoteSource
	updates chan domain.DevicePosition
	errs    chan error
	once    sync.Once
}

func (w *remoteWatch) Updates() <-chan domain.DevicePosition { return w.updates }

func (w *remoteWatch) Errors() <-chan error { return w.errs }

// Stop unregisters the watch. Submissions and Stop both run under the
// source mutex, so closing the channels here cannot race a send.
func (w *remoteWatch) Stop() {
	w.once.Do(func() {
		w.src.mu.Lock()
		delete(w.src.watches, w)
		close(w.updates)
		close(w.errs)
		w.src.mu.Unlock()
	})
}
