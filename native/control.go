// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: control.go: Platform thread control capability
//
// Purpose:
//   - One interface for naming a thread and reading or writing its CPU
//     affinity, with one implementation per platform capability.
//   - The variant is chosen at build time (control_linux.go / control_other.go)
//     so nothing above this package branches on GOOS.
//
// Notes:
//   - Implementations do not check liveness. The managed thread handle does
//     that before any call reaches this layer.
//   - Failures map to the taxonomy in errors.go; nothing is retried.
// ─────────────────────────────────────────────────────────────────────────────

package native

// Control performs native operations on the OS thread identified by tid.
type Control interface {
	// Name identifies the implementation, e.g. "posix" or "unsupported".
	Name() string

	// SetName sets the OS-visible thread name.
	SetName(tid int, name string) error

	// SetAffinity restricts the thread to the given zero-based cores.
	SetAffinity(tid int, cores []int) error

	// GetAffinity returns the thread's cores in ascending order.
	GetAffinity(tid int) ([]int, error)
}

// Default returns the control variant compiled for this platform.
func Default() Control {
	return newDefault()
}

// Supported reports whether this platform has a native implementation.
func Supported() bool {
	_, unsupported := newDefault().(UnsupportedControl)
	return !unsupported
}

// UnsupportedControl fails every operation with ErrUnsupported.
type UnsupportedControl struct{}

var _ Control = UnsupportedControl{}

func (UnsupportedControl) Name() string { return "unsupported" }

func (UnsupportedControl) SetName(int, string) error { return ErrUnsupported }

func (UnsupportedControl) SetAffinity(int, []int) error { return ErrUnsupported }

func (UnsupportedControl) GetAffinity(int) ([]int, error) { return nil, ErrUnsupported }
