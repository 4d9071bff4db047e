// relax.go: portable spin back-off
//
// Go exposes no PAUSE/YIELD intrinsic without assembly stubs, so the relax
// step re-reads the contended word a few times instead of hammering it with
// CAS writes. Keeps the loop in userspace between yields.

package spin

import "sync/atomic"

// cpuRelax waits a few plain loads on w, returning early once it is free.
//
//go:nosplit
func cpuRelax(w *atomic.Uint32) {
	for i := 0; i < 4; i++ {
		if w.Load() == 0 {
			return
		}
	}
}
