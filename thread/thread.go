// ════════════════════════════════════════════════════════════════════════════════════════════════
// MANAGED THREAD HANDLE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// A Thread owns one goroutine locked to its own OS thread for its whole life,
// together with the thread's pacing configuration and statistic buffers.
//
// Lifecycle:
//   - Start locks the goroutine to an OS thread, records its kernel id, marks
//     the handle running, applies name/affinity options, then runs the body
//   - When the body returns the handle is marked not running and the OS
//     thread exits with the goroutine (it is never unlocked)
//
// Native control:
//   - SetName, SetAffinity and GetAffinity check liveness first and fail
//     with native.ErrNotRunning without touching the platform
//   - Failures come back as *native.OpError wrapping the taxonomy error
//
// Statistics:
//   - Statistic and FlushStatistic belong to the body's goroutine
//   - GetStatistic may be called from anywhere at any time
// ════════════════════════════════════════════════════════════════════════════════════════════════

package thread

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"

	"threadpace/debug"
	"threadpace/native"
	"threadpace/pacing"
	"threadpace/stat"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("thread: already started")

// Body is the code run on the managed OS thread.
type Body func(t *Thread)

// Thread is a handle to one managed OS thread.
// Native calls check liveness once before reaching the platform; a body that
// returns in between leaves the call aimed at a tid the kernel may reuse.
type Thread struct {
	control native.Control
	log     log.Logger

	started atomic.Bool
	running atomic.Bool
	tid     atomic.Int64
	name    atomic.Pointer[string]
	done    chan struct{}

	// applied on the thread before the body runs
	initName  string
	initCores []int

	config pacing.Config
	stats  stat.Exchange
}

// New returns an unstarted handle.
func New(opts ...Option) *Thread {
	t := &Thread{
		control: native.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = debug.Component("thread")
	return t
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start launches body on a new OS thread and blocks until the thread is
// running and its name and affinity options are applied. If an option
// fails the body never runs, the thread exits and the error is returned.
func (t *Thread) Start(body Body) error {
	if !t.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ready := make(chan error, 1)
	go t.run(body, ready)
	return <-ready
}

func (t *Thread) run(body Body, ready chan<- error) {
	// Never unlocked: the OS thread is torn down when this goroutine exits,
	// so liveness of the handle and of the kernel thread coincide.
	runtime.LockOSThread()
	defer close(t.done)

	t.tid.Store(int64(native.CurrentThreadID()))
	t.running.Store(true)
	defer t.running.Store(false)

	if err := t.setup(); err != nil {
		t.log.Error().Err(err).Int("tid", t.TID()).Msg("thread setup failed")
		ready <- err
		return
	}
	t.log.Debug().Int("tid", t.TID()).Str("name", t.Name()).Msg("thread started")
	ready <- nil

	body(t)
	t.log.Debug().Int("tid", t.TID()).Str("name", t.Name()).Msg("thread exited")
}

func (t *Thread) setup() error {
	if t.initName != "" {
		if err := t.SetName(t.initName); err != nil {
			return err
		}
	}
	if t.initCores != nil {
		if err := t.SetAffinity(t.initCores); err != nil {
			return err
		}
	}
	return nil
}

// Done is closed once the thread has exited.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the thread exits or timeout passes, reporting whether
// it exited. A non-positive timeout waits forever.
func (t *Thread) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-t.done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// IsRunning reports whether the managed OS thread is alive.
func (t *Thread) IsRunning() bool {
	return t.running.Load()
}

// CheckRunning returns native.ErrNotRunning, wrapped with op, when the
// thread is not alive.
func (t *Thread) CheckRunning(op string) error {
	if !t.IsRunning() {
		return &native.OpError{Op: op, TID: t.TID(), Err: native.ErrNotRunning}
	}
	return nil
}

// TID is the kernel thread id, 0 before start or where unsupported.
func (t *Thread) TID() int {
	return int(t.tid.Load())
}

// Name is the last name confirmed by the platform.
func (t *Thread) Name() string {
	if p := t.name.Load(); p != nil {
		return *p
	}
	return ""
}

// Control returns the platform control variant in use.
func (t *Thread) Control() native.Control {
	return t.control
}

// ============================================================================
// NATIVE CONTROL
// ============================================================================

// SetName sets the OS-visible thread name. The handle's name changes only
// when the platform accepts it.
func (t *Thread) SetName(name string) error {
	const op = "set_name"
	if err := t.CheckRunning(op); err != nil {
		return err
	}
	if err := t.control.SetName(t.TID(), name); err != nil {
		return &native.OpError{Op: op, TID: t.TID(), Err: err}
	}
	t.name.Store(&name)
	return nil
}

// SetAffinity restricts the thread to cores.
func (t *Thread) SetAffinity(cores []int) error {
	const op = "set_affinity"
	if err := t.CheckRunning(op); err != nil {
		return err
	}
	if err := t.control.SetAffinity(t.TID(), cores); err != nil {
		return &native.OpError{Op: op, TID: t.TID(), Err: err}
	}
	return nil
}

// GetAffinity returns the thread's cores in ascending order.
func (t *Thread) GetAffinity() ([]int, error) {
	const op = "get_affinity"
	if err := t.CheckRunning(op); err != nil {
		return nil, err
	}
	cores, err := t.control.GetAffinity(t.TID())
	if err != nil {
		return nil, &native.OpError{Op: op, TID: t.TID(), Err: err}
	}
	return cores, nil
}

// ============================================================================
// PACING
// ============================================================================

// SetConfig replaces the pacing configuration when config is non-nil and
// reports whether it did. The handle keeps its own copy.
func (t *Thread) SetConfig(config *pacing.Config) bool {
	if config == nil {
		return false
	}
	t.config = config.Clone()
	return true
}

// HasConfig reports whether any pacing field is set.
func (t *Thread) HasConfig() bool {
	return t.config.HasConfig()
}

// Config returns a copy of the pacing configuration.
func (t *Thread) Config() pacing.Config {
	return t.config.Clone()
}

// NeededSleep returns the sleep trigger relative to start.
func (t *Thread) NeededSleep(start time.Duration) pacing.Trigger {
	return t.config.NeededSleep(start)
}

// NeededCallLogic returns the logic trigger relative to start.
func (t *Thread) NeededCallLogic(start time.Duration) pacing.Trigger {
	return t.config.NeededCallLogic(start)
}

// NeededFlush returns the flush deadline relative to start, 0 for never.
func (t *Thread) NeededFlush(start time.Duration) time.Duration {
	return t.config.NeededFlush(start)
}

// ============================================================================
// STATISTICS
// ============================================================================

// Statistic returns the live counters. Only the body may write them.
func (t *Thread) Statistic() *stat.Statistic {
	return t.stats.Active()
}

// FlushStatistic publishes the live counters and resets them. Only the body
// may call it.
func (t *Thread) FlushStatistic() {
	t.stats.Flush()
}

// GetStatistic returns the last flushed snapshot. Safe from any goroutine.
func (t *Thread) GetStatistic() stat.Statistic {
	return t.stats.Snapshot()
}
