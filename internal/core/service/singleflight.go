package service

import "sync/atomic"

// slotLock is a single-slot try-lock. TryAcquire succeeds only while the slot
// is free; it never blocks. It backs the single-flight guards around marker
// presentation and proximity scanning.
type slotLock struct {
	busy atomic.Bool
}

// TryAcquire claims the slot, reporting whether it was free.
func (l *slotLock) TryAcquire() bool { return l.busy.CompareAndSwap(false, true) }

// Release frees the slot.
func (l *slotLock) Release() { l.busy.Store(false) }

// Held reports whether the slot is currently claimed.
func (l *slotLock) Held() bool { return l.busy.Load() }
