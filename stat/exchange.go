package stat

import "threadpace/spin"

// Exchange is a pair of Statistic buffers: active, written only by the
// owning thread, and previous, the last flushed snapshot read by observers.
//
// Flush and Snapshot share one spin flag, so a snapshot never observes a
// half-copied record. Flush must only be called by the owning thread.
type Exchange struct {
	flag     spin.Flag
	active   Statistic
	previous Statistic
}

// Active returns the live buffer. Only the owning thread may touch it.
func (x *Exchange) Active() *Statistic {
	return &x.active
}

// Flush publishes active as the new snapshot and resets active to zero.
func (x *Exchange) Flush() {
	x.copy(&x.previous, &x.active)
	x.active = Statistic{}
}

// Snapshot returns a copy of the last flushed record. Safe from any
// goroutine; repeated calls with no flush in between return the same value.
func (x *Exchange) Snapshot() Statistic {
	var s Statistic
	x.copy(&s, &x.previous)
	return s
}

func (x *Exchange) copy(to, from *Statistic) {
	x.flag.Do(func() { *to = *from })
}
