// ════════════════════════════════════════════════════════════════════════════════════════════════
// PACED RUN LOOP
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Drives user logic on a managed thread according to the thread's pacing
// configuration, keeping the thread's live statistics up to date.
//
// Per iteration:
//   - Logic runs when its loop-count or elapsed-time trigger fires, or on
//     every iteration when no logic trigger is configured
//   - A logic call returning 0 is an empty loop; empty loops in a row can
//     trigger a sleep unless the control switch is still hot
//   - A sleep phase starts when the sleep trigger fires (sleep gate open)
//   - Statistics are flushed when the flush deadline passes, and once more
//     when the loop exits
//
// Triggers are re-armed relative to the iteration that consumed them, so the
// hot path only compares integers and durations.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package runloop

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"threadpace/constants"
	"threadpace/control"
	"threadpace/debug"
	"threadpace/thread"
)

// Logic performs one unit of user work and returns how many items it
// processed. Zero marks an empty loop.
type Logic func() int

// Options tunes a run loop. The zero value is usable.
type Options struct {
	// Switch stops the loop and tracks activity. Defaults to a new switch
	// with constants.DefaultCooldown.
	Switch *control.Switch

	// SleepFor is the length of one sleep phase. Defaults to
	// constants.DefaultSleep.
	SleepFor time.Duration

	// Clock returns elapsed time from an arbitrary origin. Defaults to the
	// monotonic time since Run started.
	Clock func() time.Duration
}

func (o Options) withDefaults() Options {
	if o.Switch == nil {
		o.Switch = control.New(constants.DefaultCooldown)
	}
	if o.SleepFor <= 0 {
		o.SleepFor = constants.DefaultSleep
	}
	if o.Clock == nil {
		origin := time.Now()
		o.Clock = func() time.Duration { return time.Since(origin) }
	}
	return o
}

// Run loops on the calling goroutine until the switch is shut down (nil) or
// ctx is done (ctx.Err()). It must be called from t's body, since it writes
// t's live statistics and flushes them.
func Run(ctx context.Context, t *thread.Thread, logic Logic, opts Options) error {
	opts = opts.withDefaults()
	var (
		sw    = opts.Switch
		clock = opts.Clock
		cfg   = t.Config()
		lg    = debug.Component("runloop")

		now         = clock()
		windowStart = now

		logicAt    = t.NeededCallLogic(now)
		paceLogic  = logicAt.Armed()
		sleepGate  = cfg.Sleep()
		sleepAt    = t.NeededSleep(now)
		emptyLimit = cfg.EmptyLoopLimit()
		flushAt    = t.NeededFlush(now)

		sinceLogic, sinceSleep, emptyRow uint64
	)

	lg.Debug().Str("thread", t.Name()).Bool("paced", t.HasConfig()).Msg("run loop started")
	defer func() {
		st := t.Statistic()
		st.Window = clock() - windowStart
		t.FlushStatistic()
		lg.Debug().Str("thread", t.Name()).Msg("run loop stopped")
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if sw.Stopped() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		st := t.Statistic()
		st.Loops++
		sinceLogic++
		sinceSleep++
		now = clock()

		// ───── logic ─────
		if !paceLogic || logicAt.Due(sinceLogic, now) {
			n := logic()
			st.LogicCalls++
			if n > 0 {
				st.Items += uint64(n)
				emptyRow = 0
				sw.SignalActivity()
			} else {
				st.EmptyLoops++
				emptyRow++
				sw.PollCooldown()
			}
			sinceLogic = 0
			if paceLogic {
				logicAt = t.NeededCallLogic(now)
			}
		}

		// ───── sleep ─────
		if sleepGate && (sleepAt.Due(sinceSleep, now) ||
			(emptyLimit != 0 && emptyRow >= emptyLimit && !sw.Hot())) {
			timer = park(ctx, timer, opts.SleepFor)
			after := clock()
			st.Sleeps++
			if after > now {
				st.Slept += after - now
			}
			now = after
			sinceSleep, emptyRow = 0, 0
			sleepAt = t.NeededSleep(now)
		}

		// ───── flush ─────
		if flushAt != 0 && now >= flushAt {
			st.Window = now - windowStart
			t.FlushStatistic()
			windowStart = now
			flushAt = t.NeededFlush(now)
		}
	}
}

// park sleeps for d or until ctx is done, reusing timer across calls.
func park(ctx context.Context, timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		timer = time.NewTimer(d)
	} else {
		timer.Reset(d)
	}
	select {
	case <-timer.C:
	case <-ctx.Done():
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
	return timer
}

// Go starts t with a body that runs the loop. The returned channel yields
// Run's result once the thread exits.
func Go(ctx context.Context, t *thread.Thread, logic Logic, opts Options) (<-chan error, error) {
	result := make(chan error, 1)
	err := t.Start(func(t *thread.Thread) {
		result <- Run(ctx, t, logic, opts)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LogSnapshot writes t's last flushed statistics through lg.
func LogSnapshot(lg *log.Logger, t *thread.Thread) {
	s := t.GetStatistic()
	lg.Info().
		Str("thread", t.Name()).
		Bool("running", t.IsRunning()).
		Uint64("loops", s.Loops).
		Uint64("logic_calls", s.LogicCalls).
		Uint64("empty_loops", s.EmptyLoops).
		Uint64("items", s.Items).
		Uint64("sleeps", s.Sleeps).
		Dur("slept", s.Slept).
		Dur("window", s.Window).
		Msg("statistic")
}
