// Package trace implements the bounded trace ring and its KPI
// roll-ups (C6). The ring is the single in-memory source of truth for
// "what just happened"; persistence (internal/persistence) is the
// durable, unbounded copy.
//
// Grounded on the teacher's internal/backtest/ledger.go, which
// accumulates an ordered slice of LedgerRow and computes summary
// statistics over it. KPI derivation here is a single pass over the
// retained slice; nothing is sorted.
package trace

import (
	"sync"

	"gridshift-gate/internal/model"
)

const defaultCapacity = 600

// Ring is an insertion-ordered, bounded, thread-safe collection of
// trace events. Per the concurrency model, the live system only ever
// mutates it from one scheduler goroutine, but the ring wraps access
// in a mutex anyway since Go's runtime is parallel even when the
// caller's own scheduling discipline is cooperative.
type Ring struct {
	mu       sync.Mutex
	capacity int
	events   []model.TraceEvent
}

// NewRing constructs a ring with the default ~600-event capacity.
func NewRing() *Ring {
	return &Ring{capacity: defaultCapacity}
}

// NewRingWithCapacity is used by tests to exercise eviction without
// pushing hundreds of events.
func NewRingWithCapacity(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{capacity: capacity}
}

// Push appends one event, evicting the oldest if the ring is full.
func (r *Ring) Push(ev model.TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if len(r.events) > r.capacity {
		r.events = r.events[len(r.events)-r.capacity:]
	}
}

// PushAll appends a batch in order.
func (r *Ring) PushAll(evs []model.TraceEvent) {
	for _, ev := range evs {
		r.Push(ev)
	}
}

// Tail returns the most recent limit events, oldest-first.
func (r *Ring) Tail(limit int) []model.TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]model.TraceEvent, limit)
	copy(out, r.events[len(r.events)-limit:])
	return out
}

// Occupancy reports the current number of retained events, used by
// the ring-occupancy gauge.
func (r *Ring) Occupancy() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Snapshot returns a point-in-time copy of every retained event,
// oldest-first.
func (r *Ring) Snapshot() []model.TraceEvent {
	return r.Tail(0)
}
