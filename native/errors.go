package native

import (
	"errors"
	"strconv"
	"syscall"
)

// Failure taxonomy of native thread control. Callers branch with errors.Is.
var (
	// ErrNotRunning is returned when the managed thread is not alive.
	ErrNotRunning = errors.New("thread is not running")

	// ErrNameTooLong is returned when the platform rejects a name's length.
	ErrNameTooLong = errors.New("thread name exceeds the allowed length")

	// ErrInvalidAddress is returned when the platform reports a bad memory
	// reference during an affinity call.
	ErrInvalidAddress = errors.New("a supplied memory address was invalid")

	// ErrNoValidCores is returned when an affinity mask selects no core that
	// is online and permitted to the thread.
	ErrNoValidCores = errors.New("affinity mask contains no permitted cores")

	// ErrThreadNotFound is returned when the native thread id cannot be
	// resolved.
	ErrThreadNotFound = errors.New("no thread with the given id")

	// ErrMaskTooSmall is returned when the affinity mask is smaller than the
	// one used by the kernel.
	ErrMaskTooSmall = errors.New("affinity mask is smaller than the kernel mask")

	// ErrUnsupported is returned on platforms without an implementation.
	ErrUnsupported = errors.New("unsupported functionality")
)

// PlatformError carries a platform status code that has no dedicated
// taxonomy entry.
type PlatformError struct {
	Code syscall.Errno
}

func (e *PlatformError) Error() string {
	return "platform error " + strconv.Itoa(int(e.Code)) + ": " + e.Code.Error()
}

// Unwrap exposes the raw errno, so errors.Is(err, unix.EPERM) works.
func (e *PlatformError) Unwrap() error {
	return e.Code
}

// OpError records which operation failed against which thread.
type OpError struct {
	Op  string
	TID int
	Err error
}

func (e *OpError) Error() string {
	return e.Op + " (tid " + strconv.Itoa(e.TID) + "): " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Code extracts the platform status code carried by err, if any.
func Code(err error) (syscall.Errno, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}
