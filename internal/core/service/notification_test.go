package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubPush struct {
	ch chan domain.DomainEvent
}

func newStubPush() *stubPush {
	return &stubPush{ch: make(chan domain.DomainEvent, 16)}
}

func (p *stubPush) SubscribePush(_ context.Context) (<-chan domain.DomainEvent, error) {
	return p.ch, nil
}

type stubFetcher struct {
	mu     sync.Mutex
	events []domain.DomainEvent // newest first, mirroring the real store
	err    error
}

func (f *stubFetcher) FetchRecent(_ context.Context, limit int) ([]domain.DomainEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *stubFetcher) set(events ...domain.DomainEvent) {
	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
}

type stubReadStore struct {
	mu    sync.Mutex
	read  map[string]struct{}
	sound *bool
	err   error
}

func newStubReadStore() *stubReadStore {
	return &stubReadStore{read: map[string]struct{}{}}
}

func (s *stubReadStore) MarkRead(_ context.Context, eventIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, id := range eventIDs {
		s.read[id] = struct{}{}
	}
	return nil
}

func (s *stubReadStore) ListRead(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.read))
	for id := range s.read {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *stubReadStore) SetSoundEnabled(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sound = &enabled
	return nil
}

func (s *stubReadStore) SoundEnabled(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sound == nil {
		return true, nil
	}
	return *s.sound, nil
}

func (s *stubReadStore) persistedRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.read[id]
	return ok
}

type stubPlayer struct {
	mu     sync.Mutex
	chimes int
}

func (p *stubPlayer) Chime() {
	p.mu.Lock()
	p.chimes++
	p.mu.Unlock()
}

func (p *stubPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chimes
}

func event(id string, at time.Time) domain.DomainEvent {
	return domain.DomainEvent{
		ID:         id,
		SubjectRef: "load-42",
		Kind:       domain.KindArrival,
		Timestamp:  at,
	}
}

func drainAlerts(ch <-chan ports.FeedAlert) []ports.FeedAlert {
	var out []ports.FeedAlert
	for {
		select {
		case a := <-ch:
			out = append(out, a)
		default:
			return out
		}
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestFeedPushThenPollAlertsOnce(t *testing.T) {
	push := newStubPush()
	fetcher := &stubFetcher{}
	f := NewFeed(push, fetcher, newStubReadStore(), nil, FeedConfig{PollInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	alerts, unsub := f.Subscribe()
	defer unsub()

	evt := event("e1", time.Now())
	push.ch <- evt
	select {
	case a := <-alerts:
		if a.Event.ID != "e1" || a.Source != "push" {
			t.Fatalf("unexpected alert: %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push alert never delivered")
	}

	// The same event comes back on the next reconciliation poll.
	fetcher.set(evt)
	f.pollOnce(ctx, true)

	if got := drainAlerts(alerts); len(got) != 0 {
		t.Fatalf("poll re-alerted a known event: %+v", got)
	}
	if n := len(f.List()); n != 1 {
		t.Fatalf("expected 1 feed item, got %d", n)
	}
}

func TestFeedPollInsertsNewestFirst(t *testing.T) {
	now := time.Now()
	fetcher := &stubFetcher{}
	fetcher.set(event("e2", now), event("e1", now.Add(-time.Minute)))
	f := NewFeed(newStubPush(), fetcher, newStubReadStore(), nil, FeedConfig{}, zerolog.Nop())

	f.pollOnce(context.Background(), false)

	items := f.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Event.ID != "e2" || items[1].Event.ID != "e1" {
		t.Fatalf("order wrong: %s, %s", items[0].Event.ID, items[1].Event.ID)
	}
}

func TestFeedStartPrimesSilently(t *testing.T) {
	now := time.Now()
	fetcher := &stubFetcher{}
	fetcher.set(event("e2", now), event("e1", now.Add(-time.Minute)))
	f := NewFeed(newStubPush(), fetcher, newStubReadStore(), nil, FeedConfig{PollInterval: time.Hour}, zerolog.Nop())

	alerts, unsub := f.Subscribe()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := drainAlerts(alerts); len(got) != 0 {
		t.Fatalf("priming fetch must not alert: %+v", got)
	}
	if n := f.UnreadCount(); n != 2 {
		t.Fatalf("expected 2 unread after priming, got %d", n)
	}
}

func TestFeedCapacityEvictsOldest(t *testing.T) {
	f := NewFeed(newStubPush(), &stubFetcher{}, newStubReadStore(), nil, FeedConfig{Capacity: 3}, zerolog.Nop())

	now := time.Now()
	for i := 1; i <= 4; i++ {
		f.ingestPush(event(fmt.Sprintf("e%d", i), now))
	}

	items := f.List()
	if len(items) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(items))
	}
	if items[0].Event.ID != "e4" || items[2].Event.ID != "e2" {
		t.Fatalf("wrong window: %s .. %s", items[0].Event.ID, items[2].Event.ID)
	}

	// The evicted id is forgotten entirely: unknown to MarkRead and eligible
	// to re-enter the list.
	if err := f.MarkRead(context.Background(), "e1"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound for evicted id, got %v", err)
	}
	f.ingestPush(event("e1", now))
	if f.List()[0].Event.ID != "e1" {
		t.Fatal("evicted id should re-enter as new")
	}
}

func TestFeedMarkReadLifecycle(t *testing.T) {
	store := newStubReadStore()
	f := NewFeed(newStubPush(), &stubFetcher{}, store, nil, FeedConfig{}, zerolog.Nop())

	now := time.Now()
	f.ingestPush(event("e1", now))
	f.ingestPush(event("e2", now))
	f.ingestPush(event("e3", now))

	if n := f.UnreadCount(); n != 3 {
		t.Fatalf("expected 3 unread, got %d", n)
	}

	if err := f.MarkRead(context.Background(), "e2"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n := f.UnreadCount(); n != 2 {
		t.Fatalf("expected 2 unread, got %d", n)
	}
	if !store.persistedRead("e2") {
		t.Fatal("read state not persisted")
	}
	// Marking again is a no-op, not an error.
	if err := f.MarkRead(context.Background(), "e2"); err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}

	if err := f.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n := f.UnreadCount(); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}

	// New arrivals are unread regardless of history.
	f.ingestPush(event("e4", now))
	if n := f.UnreadCount(); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
}

func TestFeedMarkReadUnknownEvent(t *testing.T) {
	f := NewFeed(newStubPush(), &stubFetcher{}, newStubReadStore(), nil, FeedConfig{}, zerolog.Nop())
	if err := f.MarkRead(context.Background(), "ghost"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestFeedSoundPreference(t *testing.T) {
	store := newStubReadStore()
	player := &stubPlayer{}
	f := NewFeed(newStubPush(), &stubFetcher{}, store, player, FeedConfig{}, zerolog.Nop())

	if !f.Sound() {
		t.Fatal("sound must default to on")
	}

	f.ingestPush(event("e1", time.Now()))
	if player.count() != 1 {
		t.Fatalf("expected 1 chime, got %d", player.count())
	}

	if err := f.SetSound(context.Background(), false); err != nil {
		t.Fatalf("SetSound: %v", err)
	}
	f.ingestPush(event("e2", time.Now()))
	if player.count() != 1 {
		t.Fatalf("muted feed still chimed: %d", player.count())
	}

	store.mu.Lock()
	persisted := store.sound
	store.mu.Unlock()
	if persisted == nil || *persisted {
		t.Fatal("sound preference not persisted")
	}
}

func TestFeedSetSoundPersistFailureKeepsPreference(t *testing.T) {
	store := newStubReadStore()
	store.err = errors.New("redis down")
	f := NewFeed(newStubPush(), &stubFetcher{}, store, nil, FeedConfig{}, zerolog.Nop())

	if err := f.SetSound(context.Background(), false); err != nil {
		t.Fatalf("persist failure must not surface: %v", err)
	}
	if f.Sound() {
		t.Fatal("in-memory preference lost")
	}
}

func TestFeedSubscribeCancelClosesChannel(t *testing.T) {
	f := NewFeed(newStubPush(), &stubFetcher{}, newStubReadStore(), nil, FeedConfig{}, zerolog.Nop())

	alerts, unsub := f.Subscribe()
	unsub()
	unsub() // safe to call twice

	if _, open := <-alerts; open {
		t.Fatal("cancel must close the alert channel")
	}

	// A closed subscriber must not block future alerts.
	f.ingestPush(event("e1", time.Now()))
}
