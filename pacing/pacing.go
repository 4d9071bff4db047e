// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: pacing.go: Sparse pacing thresholds and trigger calculator
//
// Purpose:
//   - Describes when a run loop should call user logic, sleep, and flush
//     statistics, as "after N loops" OR "after duration D" thresholds.
//   - Unwraps the optional fields once so the run loop's hot path only
//     compares plain integers and elapsed durations.
//
// Notes:
//   - Every field is optional. nil means unset, which is distinct from zero.
//   - Elapsed times are offsets from an arbitrary origin chosen by the run
//     loop (usually its start). A zero threshold means "never fires".
// ─────────────────────────────────────────────────────────────────────────────

package pacing

import "time"

// Config is the pacing policy of a managed thread. The zero value applies no
// pacing at all.
type Config struct {
	// FlushStatistic flushes statistics at least this often.
	FlushStatistic *time.Duration

	// CallLogicFun invokes user logic once this much time has elapsed.
	CallLogicFun *time.Duration

	// CallLogicOnNLoop invokes user logic every N loops.
	CallLogicOnNLoop *uint64

	// CallSleep enters a sleep phase once this much time has elapsed.
	CallSleep *time.Duration

	// CallSleepOnNLoop enters a sleep phase every N loops.
	CallSleepOnNLoop *uint64

	// CallSleepOnNEmptyLoopInARow enters a sleep phase after N consecutive
	// logic calls that produced no work.
	CallSleepOnNEmptyLoopInARow *uint64
}

// Duration returns an optional duration holding d.
func Duration(d time.Duration) *time.Duration { return &d }

// Loops returns an optional loop count holding n.
func Loops(n uint64) *uint64 { return &n }

// HasConfig reports whether any pacing field is set.
func (c Config) HasConfig() bool {
	return c.FlushStatistic != nil ||
		c.CallLogicFun != nil ||
		c.CallLogicOnNLoop != nil ||
		c.CallSleep != nil ||
		c.CallSleepOnNLoop != nil ||
		c.CallSleepOnNEmptyLoopInARow != nil
}

// Sleep is the gate for sleep trigger computation: true when any
// sleep-related field is set to a non-zero value.
func (c Config) Sleep() bool {
	return nonZeroDuration(c.CallSleep) ||
		nonZeroLoops(c.CallSleepOnNLoop) ||
		nonZeroLoops(c.CallSleepOnNEmptyLoopInARow)
}

// EmptyLoopLimit is the consecutive empty loop count that triggers a sleep,
// 0 when unset or when the sleep gate is closed.
func (c Config) EmptyLoopLimit() uint64 {
	if !c.Sleep() {
		return 0
	}
	return loops(c.CallSleepOnNEmptyLoopInARow)
}

// Trigger is a disjunction of a loop count threshold and an elapsed time
// threshold. Either half is disabled when zero.
type Trigger struct {
	Loops uint64
	At    time.Duration
}

// Armed reports whether either half of the trigger can fire.
func (t Trigger) Armed() bool {
	return t.Loops != 0 || t.At != 0
}

// Due reports whether the trigger fires after loops iterations at elapsed
// time now.
func (t Trigger) Due(loops uint64, now time.Duration) bool {
	return (t.Loops != 0 && loops >= t.Loops) || (t.At != 0 && now >= t.At)
}

// NeededSleep returns the next sleep trigger relative to start. Both halves
// are zero when the sleep gate is closed.
func (c Config) NeededSleep(start time.Duration) Trigger {
	if !c.Sleep() {
		return Trigger{}
	}
	return Trigger{
		Loops: loops(c.CallSleepOnNLoop),
		At:    deadline(start, c.CallSleep),
	}
}

// NeededCallLogic returns the next logic trigger relative to start. Either
// logic field alone is enough to populate it.
func (c Config) NeededCallLogic(start time.Duration) Trigger {
	if c.CallLogicOnNLoop == nil && c.CallLogicFun == nil {
		return Trigger{}
	}
	return Trigger{
		Loops: loops(c.CallLogicOnNLoop),
		At:    deadline(start, c.CallLogicFun),
	}
}

// NeededFlush returns start + FlushStatistic, or zero when unset.
func (c Config) NeededFlush(start time.Duration) time.Duration {
	return deadline(start, c.FlushStatistic)
}

// Clone returns a deep copy, so later edits to c's targets do not leak.
func (c Config) Clone() Config {
	return Config{
		FlushStatistic:              cloneDuration(c.FlushStatistic),
		CallLogicFun:                cloneDuration(c.CallLogicFun),
		CallLogicOnNLoop:            cloneLoops(c.CallLogicOnNLoop),
		CallSleep:                   cloneDuration(c.CallSleep),
		CallSleepOnNLoop:            cloneLoops(c.CallSleepOnNLoop),
		CallSleepOnNEmptyLoopInARow: cloneLoops(c.CallSleepOnNEmptyLoopInARow),
	}
}

func deadline(start time.Duration, d *time.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return start + *d
}

func loops(n *uint64) uint64 {
	if n == nil {
		return 0
	}
	return *n
}

func nonZeroDuration(d *time.Duration) bool { return d != nil && *d != 0 }

func nonZeroLoops(n *uint64) bool { return n != nil && *n != 0 }

func cloneDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	return Duration(*d)
}

func cloneLoops(n *uint64) *uint64 {
	if n == nil {
		return nil
	}
	return Loops(*n)
}
