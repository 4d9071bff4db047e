//go:build linux && !tinygo

package native

import (
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// onLockedThread runs fn on a fresh OS thread that is discarded afterwards,
// so name and affinity changes never leak into other tests.
func onLockedThread(t *testing.T, fn func(tid int)) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		fn(CurrentThreadID())
	}()
	<-done
}

func readComm(t *testing.T, tid int) string {
	t.Helper()
	data, err := os.ReadFile(commPath(tid))
	require.NoError(t, err)
	return strings.TrimRight(string(data), "\n")
}

func TestDefault_IsPosix(t *testing.T) {
	assert.True(t, Supported())
	assert.Equal(t, "posix", Default().Name())
}

func TestPosixControl_SetNameSelf(t *testing.T) {
	onLockedThread(t, func(tid int) {
		require.NoError(t, PosixControl{}.SetName(tid, "tp-self"))
		assert.Equal(t, "tp-self", readComm(t, tid))
	})
}

func TestPosixControl_SetNameOtherThread(t *testing.T) {
	tidCh := make(chan int)
	release := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		tidCh <- CurrentThreadID()
		<-release
	}()
	tid := <-tidCh
	defer close(release)

	require.NoError(t, PosixControl{}.SetName(tid, "tp-other"))
	assert.Equal(t, "tp-other", readComm(t, tid))
}

func TestPosixControl_SetNameTooLong(t *testing.T) {
	onLockedThread(t, func(tid int) {
		before := readComm(t, tid)
		err := PosixControl{}.SetName(tid, strings.Repeat("n", 16))
		assert.ErrorIs(t, err, ErrNameTooLong)
		assert.Equal(t, before, readComm(t, tid))
	})
}

func TestPosixControl_SetNameUnknownThread(t *testing.T) {
	err := PosixControl{}.SetName(1<<30, "ghost")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestPosixControl_AffinityRoundTrip(t *testing.T) {
	denied := false
	onLockedThread(t, func(tid int) {
		allowed, err := PosixControl{}.GetAffinity(tid)
		require.NoError(t, err)
		require.NotEmpty(t, allowed)

		// Request the permitted cores in reverse with duplicates.
		req := make([]int, 0, 2*len(allowed))
		for i := len(allowed) - 1; i >= 0; i-- {
			req = append(req, allowed[i], allowed[i])
		}
		err = PosixControl{}.SetAffinity(tid, req)
		if code, ok := Code(err); ok && code == unix.EPERM {
			denied = true
			return
		}
		require.NoError(t, err)

		got, err := PosixControl{}.GetAffinity(tid)
		require.NoError(t, err)
		assert.Equal(t, allowed, got)

		err = PosixControl{}.SetAffinity(tid, []int{allowed[0]})
		require.NoError(t, err)
		got, err = PosixControl{}.GetAffinity(tid)
		require.NoError(t, err)
		assert.Equal(t, []int{allowed[0]}, got)
	})
	if denied {
		t.Skip("affinity changes denied in this environment")
	}
}

func TestPosixControl_SetAffinityNoValidCores(t *testing.T) {
	onLockedThread(t, func(tid int) {
		assert.ErrorIs(t, PosixControl{}.SetAffinity(tid, nil), ErrNoValidCores)
		assert.ErrorIs(t, PosixControl{}.SetAffinity(tid, []int{-1, 1 << 20}), ErrNoValidCores)
	})
}

func TestPosixControl_AffinityUnknownThread(t *testing.T) {
	assert.ErrorIs(t, PosixControl{}.SetAffinity(1<<30, []int{0}), ErrThreadNotFound)
	_, err := PosixControl{}.GetAffinity(1 << 30)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestTranslateAffinity(t *testing.T) {
	assert.NoError(t, translateAffinity(nil, ErrNoValidCores))
	assert.ErrorIs(t, translateAffinity(unix.EFAULT, ErrNoValidCores), ErrInvalidAddress)
	assert.ErrorIs(t, translateAffinity(unix.EINVAL, ErrNoValidCores), ErrNoValidCores)
	assert.ErrorIs(t, translateAffinity(unix.EINVAL, ErrMaskTooSmall), ErrMaskTooSmall)
	assert.ErrorIs(t, translateAffinity(unix.ESRCH, ErrMaskTooSmall), ErrThreadNotFound)

	err := translateAffinity(unix.EPERM, ErrNoValidCores)
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, syscall.EPERM, code)
}

func TestTranslateName(t *testing.T) {
	assert.NoError(t, translateName(nil))
	assert.ErrorIs(t, translateName(unix.ERANGE), ErrNameTooLong)
	assert.ErrorIs(t, translateName(&os.PathError{Op: "open", Path: "comm", Err: unix.ENOENT}), ErrThreadNotFound)

	err := translateName(unix.EACCES)
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, syscall.EACCES, code)
}
