// Package lifecycle owns the timers that move a game session forward on its own: the
// lobby countdown and the per-turn timeout. Every callback runs under the session's
// lock and is tied to a generation token, so a timer that was disarmed or re-armed
// while its callback was already queued does nothing when it finally runs.
package lifecycle

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Slot holds at most one pending timer. All methods must be called with the lock
// passed to NewSlot held.
type Slot struct {
	clock quartz.Clock
	mu    sync.Locker
	tag   string
	gen   uint64
	timer *quartz.Timer
}

// NewSlot creates an empty slot whose callbacks take mu before running.
func NewSlot(clock quartz.Clock, mu sync.Locker, tag string) *Slot {
	return &Slot{clock: clock, mu: mu, tag: tag}
}

// Arm replaces any pending timer with one that calls fn after d.
func (s *Slot) Arm(d time.Duration, fn func()) time.Time {
	s.Disarm()
	gen := s.gen
	deadline := s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return
		}
		s.timer = nil
		s.gen++
		fn()
	}, s.tag)
	return deadline
}

// Disarm cancels the pending timer. A callback that already started waiting for the
// lock sees a new generation and returns.
func (s *Slot) Disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Armed reports whether a timer is pending.
func (s *Slot) Armed() bool {
	return s.timer != nil
}
