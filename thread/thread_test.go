package thread

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadpace/native"
	"threadpace/pacing"
)

// ============================================================================
// TEST UTILITIES AND HELPERS
// ============================================================================

// fakeControl records every platform call and keeps a per-tid affinity set.
type fakeControl struct {
	mu       sync.Mutex
	calls    atomic.Int64
	names    map[int]string
	cores    map[int][]int
	nameErr  error
	coresErr error
}

func newFakeControl() *fakeControl {
	return &fakeControl{names: map[int]string{}, cores: map[int][]int{}}
}

func (f *fakeControl) Name() string { return "fake" }

func (f *fakeControl) SetName(tid int, name string) error {
	f.calls.Add(1)
	if f.nameErr != nil {
		return f.nameErr
	}
	f.mu.Lock()
	f.names[tid] = name
	f.mu.Unlock()
	return nil
}

func (f *fakeControl) SetAffinity(tid int, cores []int) error {
	f.calls.Add(1)
	if f.coresErr != nil {
		return f.coresErr
	}
	seen := map[int]bool{}
	var set []int
	for c := 0; c < 64; c++ {
		for _, want := range cores {
			if want == c && !seen[c] {
				seen[c] = true
				set = append(set, c)
			}
		}
	}
	if len(set) == 0 {
		return native.ErrNoValidCores
	}
	f.mu.Lock()
	f.cores[tid] = set
	f.mu.Unlock()
	return nil
}

func (f *fakeControl) GetAffinity(tid int) ([]int, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int{}, f.cores[tid]...), nil
}

// startParked starts t with a body that blocks until the returned release
// func is called.
func startParked(t *testing.T, th *Thread) (release func()) {
	t.Helper()
	gate := make(chan struct{})
	require.NoError(t, th.Start(func(*Thread) { <-gate }))
	var once sync.Once
	release = func() {
		once.Do(func() { close(gate) })
		require.True(t, th.Wait(5*time.Second))
	}
	t.Cleanup(release)
	return release
}

// ============================================================================
// LIVENESS
// ============================================================================

func TestThread_NotRunningBeforeStart(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc))

	assert.False(t, th.IsRunning())
	assert.ErrorIs(t, th.SetName("x"), native.ErrNotRunning)
	assert.ErrorIs(t, th.SetAffinity([]int{0}), native.ErrNotRunning)
	cores, err := th.GetAffinity()
	assert.ErrorIs(t, err, native.ErrNotRunning)
	assert.Nil(t, cores)

	assert.Zero(t, fc.calls.Load(), "no platform call may happen while not running")
	assert.Empty(t, th.Name())
}

func TestThread_NotRunningAfterExit(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc))
	release := startParked(t, th)
	assert.True(t, th.IsRunning())
	release()

	assert.False(t, th.IsRunning())
	before := fc.calls.Load()
	var opErr *native.OpError
	err := th.SetAffinity([]int{1})
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "set_affinity", opErr.Op)
	assert.ErrorIs(t, err, native.ErrNotRunning)
	assert.Equal(t, before, fc.calls.Load())
}

func TestThread_StartTwice(t *testing.T) {
	th := New(WithControl(newFakeControl()))
	startParked(t, th)
	assert.ErrorIs(t, th.Start(func(*Thread) {}), ErrAlreadyStarted)
}

func TestThread_BodyRunsOnRunningThread(t *testing.T) {
	th := New(WithControl(newFakeControl()))
	var sawRunning atomic.Bool
	require.NoError(t, th.Start(func(t *Thread) { sawRunning.Store(t.IsRunning()) }))
	require.True(t, th.Wait(5*time.Second))
	assert.True(t, sawRunning.Load())
	select {
	case <-th.Done():
	default:
		t.Fatal("Done must be closed after exit")
	}
}

func TestThread_WaitTimeout(t *testing.T) {
	th := New(WithControl(newFakeControl()))
	release := startParked(t, th)
	assert.False(t, th.Wait(time.Millisecond))
	release()
	assert.True(t, th.Wait(0))
}

// ============================================================================
// NATIVE CONTROL
// ============================================================================

func TestThread_SetNameRecordsOnSuccess(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc))
	startParked(t, th)

	require.NoError(t, th.SetName("worker-1"))
	assert.Equal(t, "worker-1", th.Name())
	fc.mu.Lock()
	assert.Equal(t, "worker-1", fc.names[th.TID()])
	fc.mu.Unlock()
}

func TestThread_SetNameKeepsOldNameOnFailure(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc))
	startParked(t, th)
	require.NoError(t, th.SetName("good"))

	fc.nameErr = native.ErrNameTooLong
	err := th.SetName("a-name-that-is-far-too-long")
	assert.ErrorIs(t, err, native.ErrNameTooLong)
	assert.Equal(t, "good", th.Name())
}

func TestThread_AffinityRoundTripIsSortedSet(t *testing.T) {
	th := New(WithControl(newFakeControl()))
	startParked(t, th)

	require.NoError(t, th.SetAffinity([]int{2, 0, 2, 5}))
	cores, err := th.GetAffinity()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, cores)
}

func TestThread_PlatformErrorWrapped(t *testing.T) {
	fc := newFakeControl()
	fc.coresErr = &native.PlatformError{Code: 1}
	th := New(WithControl(fc))
	startParked(t, th)

	err := th.SetAffinity([]int{0})
	code, ok := native.Code(err)
	require.True(t, ok)
	assert.EqualValues(t, 1, code)
}

func TestThread_StartOptions(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc), WithName("pinned"), WithAffinity([]int{3, 1}))
	startParked(t, th)

	assert.Equal(t, "pinned", th.Name())
	cores, err := th.GetAffinity()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, cores)
}

func TestThread_StartOptionFailureSkipsBody(t *testing.T) {
	fc := newFakeControl()
	th := New(WithControl(fc), WithAffinity([]int{99}))
	var ran atomic.Bool
	err := th.Start(func(*Thread) { ran.Store(true) })
	assert.ErrorIs(t, err, native.ErrNoValidCores)
	require.True(t, th.Wait(5*time.Second))
	assert.False(t, ran.Load())
	assert.False(t, th.IsRunning())
}

func TestThread_UnsupportedControl(t *testing.T) {
	th := New(WithControl(native.UnsupportedControl{}))
	startParked(t, th)
	assert.ErrorIs(t, th.SetName("x"), native.ErrUnsupported)
	assert.ErrorIs(t, th.SetAffinity([]int{0}), native.ErrUnsupported)
	_, err := th.GetAffinity()
	assert.ErrorIs(t, err, native.ErrUnsupported)
	assert.Empty(t, th.Name())
}

func TestThread_WithNilControlKeepsDefault(t *testing.T) {
	th := New(WithControl(nil))
	assert.Equal(t, native.Default().Name(), th.Control().Name())
}

// ============================================================================
// PACING
// ============================================================================

func TestThread_SetConfig(t *testing.T) {
	th := New()
	assert.False(t, th.HasConfig())

	assert.True(t, th.SetConfig(&pacing.Config{}))
	assert.False(t, th.HasConfig(), "an empty config is valid and applies no pacing")

	cfg := &pacing.Config{CallSleepOnNLoop: pacing.Loops(8)}
	assert.True(t, th.SetConfig(cfg))
	assert.True(t, th.HasConfig())

	*cfg.CallSleepOnNLoop = 99
	assert.Equal(t, pacing.Trigger{Loops: 8}, th.NeededSleep(0), "handle owns its copy")
}

func TestThread_SetConfigNilLeavesConfig(t *testing.T) {
	th := New(WithConfig(&pacing.Config{FlushStatistic: pacing.Duration(time.Second)}))
	assert.False(t, th.SetConfig(nil))
	assert.True(t, th.HasConfig())
	assert.Equal(t, 3*time.Second, th.NeededFlush(2*time.Second))
}

func TestThread_NeededDelegates(t *testing.T) {
	th := New(WithConfig(&pacing.Config{
		CallLogicOnNLoop: pacing.Loops(4),
		CallSleep:        pacing.Duration(time.Millisecond),
	}))
	assert.Equal(t, pacing.Trigger{Loops: 4}, th.NeededCallLogic(time.Second))
	assert.Equal(t, pacing.Trigger{At: time.Second + time.Millisecond}, th.NeededSleep(time.Second))
	assert.Zero(t, th.NeededFlush(time.Second))
}

// ============================================================================
// STATISTICS
// ============================================================================

func TestThread_StatisticExchange(t *testing.T) {
	th := New(WithControl(newFakeControl()))
	flushed := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, th.Start(func(t *Thread) {
		s := t.Statistic()
		s.Loops = 3
		s.Items = 9
		t.FlushStatistic()
		s.Loops++
		close(flushed)
		<-gate
	}))
	defer func() {
		close(gate)
		th.Wait(5 * time.Second)
	}()

	<-flushed
	got := th.GetStatistic()
	assert.Equal(t, uint64(3), got.Loops)
	assert.Equal(t, uint64(9), got.Items)
	assert.Equal(t, got, th.GetStatistic())
}

func TestThread_OpErrorMessage(t *testing.T) {
	th := New()
	err := th.SetName("x")
	var opErr *native.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "set_name", opErr.Op)
}
