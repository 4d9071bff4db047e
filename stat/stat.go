// Package stat holds the per-thread counter record and the double-buffered
// exchange that lets observers read it while the owning thread keeps running.
package stat

import "time"

// Statistic is a fixed-layout record of counters accumulated by a run loop
// between two flushes. It is a plain value: copying it copies everything.
type Statistic struct {
	// Loops is the number of run loop iterations.
	Loops uint64 `json:"loops"`

	// EmptyLoops is the number of logic calls that produced no work.
	EmptyLoops uint64 `json:"emptyLoops"`

	// LogicCalls is the number of times user logic was invoked.
	LogicCalls uint64 `json:"logicCalls"`

	// Items is the amount of work reported by logic calls.
	Items uint64 `json:"items"`

	// Sleeps is the number of sleep phases entered.
	Sleeps uint64 `json:"sleeps"`

	// Slept is the wall time spent in sleep phases.
	Slept time.Duration `json:"slept"`

	// Window is the elapsed time covered by the record. Set at flush.
	Window time.Duration `json:"window"`
}

// Sub computes the counter difference s - prev.
func (s Statistic) Sub(prev Statistic) (diff Statistic) {
	diff.Loops = s.Loops - prev.Loops
	diff.EmptyLoops = s.EmptyLoops - prev.EmptyLoops
	diff.LogicCalls = s.LogicCalls - prev.LogicCalls
	diff.Items = s.Items - prev.Items
	diff.Sleeps = s.Sleeps - prev.Sleeps
	diff.Slept = s.Slept - prev.Slept
	diff.Window = s.Window - prev.Window
	return diff
}

// ItemsPerCall is the average work per logic call, 0 when logic never ran.
func (s Statistic) ItemsPerCall() float64 {
	if s.LogicCalls == 0 {
		return 0
	}
	return float64(s.Items) / float64(s.LogicCalls)
}

// IsZero reports whether no counter has been touched.
func (s Statistic) IsZero() bool {
	return s == Statistic{}
}
