// control_linux.go - thread naming and affinity via prctl(2), /proc and
// sched_{set,get}affinity(2)

//go:build linux && !tinygo

package native

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"threadpace/constants"
)

// PosixControl drives the Linux thread APIs. It targets any thread of the
// current process by kernel thread id.
type PosixControl struct{}

var _ Control = PosixControl{}

func newDefault() Control { return PosixControl{} }

// CurrentThreadID returns the kernel id of the calling OS thread. Only
// meaningful while the goroutine is locked to its thread.
func CurrentThreadID() int { return unix.Gettid() }

func (PosixControl) Name() string { return "posix" }

// SetName mirrors pthread_setname_np: names longer than the kernel's comm
// field are rejected up front, the calling thread uses PR_SET_NAME and any
// other thread is renamed through /proc/self/task/<tid>/comm.
func (PosixControl) SetName(tid int, name string) error {
	if len(name) > constants.MaxThreadNameLen {
		return ErrNameTooLong
	}
	if tid == unix.Gettid() {
		p, err := unix.BytePtrFromString(name)
		if err != nil {
			return translateName(err)
		}
		err = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
		runtime.KeepAlive(p)
		return translateName(err)
	}
	f, err := os.OpenFile(commPath(tid), os.O_WRONLY, 0)
	if err != nil {
		return translateName(err)
	}
	_, err = f.Write([]byte(name))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return translateName(err)
}

// SetAffinity builds a mask from cores and applies it. Ids outside the mask
// capacity are dropped; if nothing is left the kernel rejects the empty mask.
func (PosixControl) SetAffinity(tid int, cores []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cores {
		if c >= 0 && c < constants.CPUSetBits {
			set.Set(c)
		}
	}
	return translateAffinity(unix.SchedSetaffinity(tid, &set), ErrNoValidCores)
}

// GetAffinity reads the mask back as an ascending, duplicate-free list.
func (PosixControl) GetAffinity(tid int) ([]int, error) {
	var set unix.CPUSet
	set.Zero()
	if err := unix.SchedGetaffinity(tid, &set); err != nil {
		return nil, translateAffinity(err, ErrMaskTooSmall)
	}
	cores := make([]int, 0, set.Count())
	for c := 0; c < constants.CPUSetBits; c++ {
		if set.IsSet(c) {
			cores = append(cores, c)
		}
	}
	return cores, nil
}

func commPath(tid int) string {
	return "/proc/self/task/" + strconv.Itoa(tid) + "/comm"
}

func translateName(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.ERANGE:
		return ErrNameTooLong
	case unix.ENOENT, unix.ESRCH:
		return ErrThreadNotFound
	default:
		return &PlatformError{Code: errno}
	}
}

// translateAffinity maps sched_*affinity errnos. EINVAL means different
// things for set (no usable core) and get (mask too small).
func translateAffinity(err error, einval error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.EFAULT:
		return ErrInvalidAddress
	case unix.EINVAL:
		return einval
	case unix.ESRCH:
		return ErrThreadNotFound
	default:
		return &PlatformError{Code: errno}
	}
}
