// ════════════════════════════════════════════════════════════════════════════════════════════════
// CONTROL SWITCH TEST SUITE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Covers activity signaling, cooldown expiry, shutdown and concurrent access.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package control

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// UNIT TESTS - INITIALIZATION
// ============================================================================

func TestControl_InitialState(t *testing.T) {
	var s Switch
	assert.False(t, s.Hot())
	assert.False(t, s.Stopped())
}

// ============================================================================
// UNIT TESTS - ACTIVITY SIGNALING
// ============================================================================

func TestControl_SignalActivity(t *testing.T) {
	s := New(time.Hour)
	s.SignalActivity()
	assert.True(t, s.Hot())

	s.PollCooldown()
	assert.True(t, s.Hot(), "cooldown has not elapsed")
}

func TestControl_ZeroCooldownClearsOnFirstPoll(t *testing.T) {
	var s Switch
	s.SignalActivity()
	assert.True(t, s.Hot())
	s.PollCooldown()
	assert.False(t, s.Hot())
}

func TestControl_CooldownExpiry(t *testing.T) {
	s := New(5 * time.Millisecond)
	s.SignalActivity()
	time.Sleep(10 * time.Millisecond)
	s.PollCooldown()
	assert.False(t, s.Hot())
}

func TestControl_PollCooldownIdleIsNoop(t *testing.T) {
	s := New(time.Millisecond)
	s.PollCooldown()
	assert.False(t, s.Hot())
}

// ============================================================================
// UNIT TESTS - SHUTDOWN
// ============================================================================

func TestControl_Shutdown(t *testing.T) {
	s := New(0)
	s.Shutdown()
	s.Shutdown()
	assert.True(t, s.Stopped())

	s.SignalActivity()
	s.Reset()
	assert.False(t, s.Stopped())
	assert.False(t, s.Hot())
}

// ============================================================================
// CONCURRENCY
// ============================================================================

func TestControl_ConcurrentAccess(t *testing.T) {
	s := New(time.Millisecond)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				switch (i + j) % 3 {
				case 0:
					s.SignalActivity()
				case 1:
					s.PollCooldown()
				default:
					_ = s.Hot()
					_ = s.Stopped()
				}
			}
		}(i)
	}
	wg.Wait()
	s.Shutdown()
	assert.True(t, s.Stopped())
}

func BenchmarkControl_PollCooldown(b *testing.B) {
	s := New(time.Second)
	s.SignalActivity()
	for i := 0; i < b.N; i++ {
		s.PollCooldown()
	}
}
