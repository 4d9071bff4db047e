// control.go: Stop and activity switch for a paced run loop
// ============================================================================
// RUN LOOP COORDINATION
// ============================================================================
//
// A Switch carries the two flags a run loop polls every iteration:
//
//   • stop: set once by any goroutine, observed by the loop on its next pass
//   • hot:  raised whenever logic reports work, cleared by PollCooldown after
//           the cooldown elapses with no further activity
//
// While hot, a run loop skips empty-loop sleeps so bursts keep their latency.
// All flag access is atomic; the loop never blocks on a Switch.

package control

import (
	"sync/atomic"
	"time"
)

// Switch coordinates one run loop with its owner. The zero value is usable
// and has no cooldown: the hot flag clears on the first idle poll.
type Switch struct {
	hot      atomic.Uint32
	stop     atomic.Uint32
	lastHot  atomic.Int64
	cooldown int64
}

// New returns a Switch that stays hot for cooldown after each activity.
func New(cooldown time.Duration) *Switch {
	return &Switch{cooldown: int64(cooldown)}
}

// ============================================================================
// ACTIVITY SIGNALING
// ============================================================================

// SignalActivity marks the loop as hot and records the time of activity.
func (s *Switch) SignalActivity() {
	s.lastHot.Store(time.Now().UnixNano())
	s.hot.Store(1)
}

// PollCooldown clears the hot flag once the cooldown has elapsed since the
// last activity. Called by the loop on idle iterations.
func (s *Switch) PollCooldown() {
	if s.hot.Load() == 1 && time.Now().UnixNano()-s.lastHot.Load() >= s.cooldown {
		s.hot.Store(0)
	}
}

// Hot reports whether activity was seen within the cooldown.
func (s *Switch) Hot() bool {
	return s.hot.Load() == 1
}

// ============================================================================
// SHUTDOWN
// ============================================================================

// Shutdown asks the loop to stop. Safe to call more than once.
func (s *Switch) Shutdown() {
	s.stop.Store(1)
}

// Stopped reports whether Shutdown has been called.
func (s *Switch) Stopped() bool {
	return s.stop.Load() == 1
}

// Reset clears both flags so the Switch can drive another loop.
func (s *Switch) Reset() {
	s.stop.Store(0)
	s.hot.Store(0)
	s.lastHot.Store(0)
}
