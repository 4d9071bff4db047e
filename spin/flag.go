// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: flag.go: Binary exchange spin flag
//
// Purpose:
//   - Guards tiny, fixed-size critical sections (a struct copy) shared by a
//     single writer thread and any number of observer threads.
//
// Notes:
//   - One critical section at a time: not a reader/writer lock.
//   - Spinners relax for SpinBudget attempts, then yield the P so a holder
//     that was descheduled can finish even when GOMAXPROCS is 1.
//   - No timeout. A holder that never releases starves everyone.
// ─────────────────────────────────────────────────────────────────────────────

package spin

import (
	"runtime"
	"sync/atomic"

	"threadpace/constants"
)

// Flag is a CAS-based mutual exclusion flag. The zero value is unlocked.
// It satisfies sync.Locker.
type Flag struct {
	held atomic.Uint32
}

// Lock spins until the flag is acquired.
func (f *Flag) Lock() {
	miss := 0
	for !f.tryLock() {
		if miss++; miss >= constants.SpinBudget {
			miss = 0
			runtime.Gosched()
			continue
		}
		cpuRelax(&f.held)
	}
}

func (f *Flag) tryLock() bool {
	return f.held.CompareAndSwap(0, 1)
}

// Unlock releases the flag. Unlocking a free flag is a no-op.
func (f *Flag) Unlock() {
	f.held.Store(0)
}

// Do runs fn with the flag held.
func (f *Flag) Do(fn func()) {
	f.Lock()
	defer f.Unlock()
	fn()
}
