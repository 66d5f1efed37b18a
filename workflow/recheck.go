package workflow

import (
	"sync"
	"time"
)

// RecheckScheduler keeps at most one outstanding re-check timer per key.
// Scheduling for an already-armed key cancels the previous timer first;
// cancel-then-set happens under one lock so concurrent decisions on the same
// entry cannot race.
type RecheckScheduler struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
}

func NewRecheckScheduler() *RecheckScheduler {
	return &RecheckScheduler{timers: make(map[int]*time.Timer)}
}

// Schedule arms a timer for the key, replacing any pending one.
func (r *RecheckScheduler) Schedule(key int, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		if r.timers[key] == timer {
			delete(r.timers, key)
		}
		r.mu.Unlock()
		fn()
	})
	r.timers[key] = timer
}

// Cancel drops the pending timer for a key, if any.
func (r *RecheckScheduler) Cancel(key int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if timer, ok := r.timers[key]; ok {
		timer.Stop()
		delete(r.timers, key)
	}
}

// ActiveCount returns the number of armed timers, for monitoring.
func (r *RecheckScheduler) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every pending timer. Fired callbacks already in flight run to
// completion.
func (r *RecheckScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, timer := range r.timers {
		timer.Stop()
		delete(r.timers, key)
	}
}
