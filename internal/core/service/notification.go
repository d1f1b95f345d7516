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

// FeedConfig tunes the notification pipeline.
type FeedConfig struct {
	// Capacity hard-caps the in-memory list; inserting beyond it drops the
	// oldest entry by position.
	Capacity int
	// PollInterval is the reconciliation poll cadence.
	PollInterval time.Duration
	// FetchTimeout bounds each reconciliation fetch.
	FetchTimeout time.Duration
}

func (c FeedConfig) withDefaults() FeedConfig {
	if c.Capacity <= 0 {
		c.Capacity = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	return c
}

// Feed is the dual-channel event notification pipeline: it merges a push
// stream with a periodic reconciliation poll into one bounded, deduplicated,
// most-recent-first list, and tracks durable per-event read state.
//
// The owned known-id set is consulted by both ingestion paths, which is what
// guarantees an id delivered by push and again by the next poll appears (and
// alerts) exactly once.
type Feed struct {
	push      ports.EventPushChannel
	fetcher   ports.EventFetcher
	readStore ports.ReadStateStore
	player    ports.SoundPlayer // nil when playback is unavailable
	cfg       FeedConfig
	log       zerolog.Logger

	mu    sync.Mutex
	items []domain.DomainEvent // most recent first
	known map[string]struct{}
	read  map[string]struct{}
	sound bool
	subs  map[chan ports.FeedAlert]struct{}
}

// NewFeed builds the pipeline. player may be nil; the audible cue then
// silently no-ops.
func NewFeed(push ports.EventPushChannel, fetcher ports.EventFetcher, readStore ports.ReadStateStore, player ports.SoundPlayer, cfg FeedConfig, log zerolog.Logger) *Feed {
	return &Feed{
		push:      push,
		fetcher:   fetcher,
		readStore: readStore,
		player:    player,
		cfg:       cfg.withDefaults(),
		log:       log,
		known:     map[string]struct{}{},
		read:      map[string]struct{}{},
		sound:     true,
		subs:      map[chan ports.FeedAlert]struct{}{},
	}
}

// Start loads persisted read state, primes the list with a silent initial
// fetch, then runs the push subscription and the reconciliation poll until
// ctx is cancelled.
func (f *Feed) Start(ctx context.Context) error {
	if readSet, err := f.readStore.ListRead(ctx); err != nil {
		f.log.Warn().Err(err).Msg("read state unavailable, starting with empty set")
	} else {
		f.mu.Lock()
		f.read = readSet
		f.mu.Unlock()
	}
	if sound, err := f.readStore.SoundEnabled(ctx); err != nil {
		f.log.Warn().Err(err).Msg("sound preference unavailable, defaulting to on")
	} else {
		f.mu.Lock()
		f.sound = sound
		f.mu.Unlock()
	}

	// Prime without alerting: events that predate this session are not news.
	f.pollOnce(ctx, false)

	events, err := f.push.SubscribePush(ctx)
	if err != nil {
		return err
	}
	go func() {
		for evt := range events {
			f.ingestPush(evt)
		}
	}()

	go func() {
		ticker := time.NewTicker(f.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.pollOnce(ctx, true)
			}
		}
	}()

	return nil
}

// ingestPush handles one push-delivered event: dedup against the known set,
// prepend, alert, and the optional audible cue.
func (f *Feed) ingestPush(evt domain.DomainEvent) {
	f.mu.Lock()
	if _, dup := f.known[evt.ID]; dup {
		f.mu.Unlock()
		metrics.NotificationsIngestedTotal.WithLabelValues("push", "duplicate").Inc()
		return
	}
	f.insertFrontLocked(evt)
	chime := f.sound
	f.mu.Unlock()

	metrics.NotificationsIngestedTotal.WithLabelValues("push", "new").Inc()
	f.publishUnreadGauge()
	f.alert(ports.FeedAlert{Event: evt, Source: "push"}, chime)
}

// pollOnce fetches the most recent events and merges the truly new ids. A
// failed fetch is "nothing new this cycle".
func (f *Feed) pollOnce(ctx context.Context, alert bool) {
	fctx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancel()

	events, err := f.fetcher.FetchRecent(fctx, f.cfg.Capacity)
	if err != nil {
		f.log.Debug().Err(err).Msg("reconciliation fetch failed")
		return
	}

	fresh := make([]domain.DomainEvent, 0, len(events))
	f.mu.Lock()
	// FetchRecent returns newest first; inserting in reverse keeps the
	// newest at the front of the list.
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		if _, dup := f.known[evt.ID]; dup {
			metrics.NotificationsIngestedTotal.WithLabelValues("poll", "duplicate").Inc()
			continue
		}
		f.insertFrontLocked(evt)
		fresh = append(fresh, evt)
	}
	chime := f.sound
	f.mu.Unlock()

	if len(fresh) == 0 {
		return
	}
	metrics.NotificationsIngestedTotal.WithLabelValues("poll", "new").Add(float64(len(fresh)))
	f.publishUnreadGauge()
	if alert {
		for _, evt := range fresh {
			f.alert(ports.FeedAlert{Event: evt, Source: "poll"}, chime)
		}
	}
}

// insertFrontLocked prepends evt and enforces the capacity cap, evicting the
// oldest entry by position. Callers hold f.mu.
func (f *Feed) insertFrontLocked(evt domain.DomainEvent) {
	f.items = append([]domain.DomainEvent{evt}, f.items...)
	if len(f.items) > f.cfg.Capacity {
		evicted := f.items[len(f.items)-1]
		f.items = f.items[:f.cfg.Capacity]
		delete(f.known, evicted.ID)
	}
	f.known[evt.ID] = struct{}{}
}

// alert fans the ephemeral notification out to subscribers and plays the
// audible cue when enabled and available.
func (f *Feed) alert(a ports.FeedAlert, chime bool) {
	f.mu.Lock()
	for ch := range f.subs {
		select {
		case ch <- a:
		default:
		}
	}
	f.mu.Unlock()

	if chime && f.player != nil {
		f.player.Chime()
	}
}

// List returns the feed, most recent first, annotated with read state.
func (f *Feed) List() []ports.FeedItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.FeedItem, len(f.items))
	for i, evt := range f.items {
		_, read := f.read[evt.ID]
		out[i] = ports.FeedItem{Event: evt, Read: read}
	}
	return out
}

// UnreadCount returns the number of list entries absent from the read set.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unreadLocked()
}

func (f *Feed) unreadLocked() int {
	n := 0
	for _, evt := range f.items {
		if _, read := f.read[evt.ID]; !read {
			n++
		}
	}
	return n
}

// MarkRead durably marks one event read. Marking an already-read id is a
// no-op; the persisted set only grows.
func (f *Feed) MarkRead(ctx context.Context, eventID string) error {
	f.mu.Lock()
	_, known := f.known[eventID]
	f.mu.Unlock()
	if !known {
		return domain.ErrEventNotFound
	}

	if err := f.readStore.MarkRead(ctx, eventID); err != nil {
		return err
	}
	f.mu.Lock()
	f.read[eventID] = struct{}{}
	f.mu.Unlock()
	f.publishUnreadGauge()
	return nil
}

// MarkAllRead durably marks every current list entry read.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	ids := make([]string, 0, len(f.items))
	for _, evt := range f.items {
		if _, read := f.read[evt.ID]; !read {
			ids = append(ids, evt.ID)
		}
	}
	f.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	if err := f.readStore.MarkRead(ctx, ids...); err != nil {
		return err
	}
	f.mu.Lock()
	for _, id := range ids {
		f.read[id] = struct{}{}
	}
	f.mu.Unlock()
	f.publishUnreadGauge()
	return nil
}

// SetSound persists the audible-cue preference. A failed persist keeps the
// in-memory preference for this session and is logged only.
func (f *Feed) SetSound(ctx context.Context, enabled bool) error {
	f.mu.Lock()
	f.sound = enabled
	f.mu.Unlock()
	if err := f.readStore.SetSoundEnabled(ctx, enabled); err != nil {
		f.log.Warn().Err(err).Bool("enabled", enabled).Msg("failed to persist sound preference")
	}
	return nil
}

// Sound reports the current audible-cue preference.
func (f *Feed) Sound() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sound
}

// Subscribe registers an ephemeral alert listener.
func (f *Feed) Subscribe() (<-chan ports.FeedAlert, func()) {
	ch := make(chan ports.FeedAlert, 8)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (f *Feed) publishUnreadGauge() {
	f.mu.Lock()
	n := f.unreadLocked()
	f.mu.Unlock()
	metrics.NotificationsUnread.Set(float64(n))
}
