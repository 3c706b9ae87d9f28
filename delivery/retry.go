package delivery

import (
	"math"
	"sync"
	"time"
)

// Backoff returns the delay before the given 1-based attempt: 2^(n-1) seconds
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	shift := attempt - 1
	if shift > 33 {
		return time.Duration(math.MaxInt64)
	}
	return time.Second << shift
}

// Timer is the part of *time.Timer the scheduler needs
type Timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests swap it to skip real delays
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc schedules on the runtime timer
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type scheduled struct {
	timer  Timer
	onDrop func()
}

/* Scheduler runs retry continuations on timers, detached from the caller
 * Every scheduled entry ends in exactly one of its two callbacks: run when the
 * timer fires, onDrop when Stop wins the race.
 */
type Scheduler struct {
	mu        sync.Mutex
	afterFunc AfterFunc
	pending   map[*scheduled]struct{}
	stopped   bool
}

// NewScheduler creates a scheduler; a nil afterFunc uses time.AfterFunc
func NewScheduler(afterFunc AfterFunc) *Scheduler {
	if afterFunc == nil {
		afterFunc = RealAfterFunc
	}
	return &Scheduler{
		afterFunc: afterFunc,
		pending:   make(map[*scheduled]struct{}),
	}
}

// Schedule arranges for run to be called after delay. It returns false once Stop was called.
func (s *Scheduler) Schedule(delay time.Duration, run func(), onDrop func()) bool {
	entry := &scheduled{onDrop: onDrop}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.pending[entry] = struct{}{}
	s.mu.Unlock()

	// afterFunc is called without the lock so synchronous fakes cannot deadlock
	timer := s.afterFunc(delay, func() {
		if s.take(entry) {
			run()
		}
	})

	s.mu.Lock()
	entry.timer = timer
	s.mu.Unlock()
	return true
}

// take removes the entry and reports whether it was still pending
func (s *Scheduler) take(entry *scheduled) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[entry]; !ok {
		return false
	}
	delete(s.pending, entry)
	return true
}

// Pending returns the number of continuations waiting for their timer
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending continuation, calls its onDrop and refuses new ones.
// It returns the number of dropped continuations.
func (s *Scheduler) Stop() int {
	s.mu.Lock()
	s.stopped = true
	dropped := make([]*scheduled, 0, len(s.pending))
	for entry := range s.pending {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		dropped = append(dropped, entry)
	}
	s.pending = make(map[*scheduled]struct{})
	s.mu.Unlock()

	for _, entry := range dropped {
		if entry.onDrop != nil {
			entry.onDrop()
		}
	}
	return len(dropped)
}
