// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go: Managed thread tunables
//
// Purpose:
//   - Platform limits mirrored from the kernel ABI (thread name, CPU mask).
//   - Spin and pacing defaults shared by the spin flag and the run loop.
//
// ⚠️ No runtime logic here; all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ──────────────────────────── Platform Limits ─────────────────────────────

const (
	// MaxThreadNameLen is the longest name the kernel accepts for a thread.
	// TASK_COMM_LEN is 16 bytes including the terminating NUL.
	MaxThreadNameLen = 15

	// CPUSetBits is the number of cores addressable by one affinity mask.
	// Matches glibc's CPU_SETSIZE and the size of unix.CPUSet.
	CPUSetBits = 1024
)

// ─────────────────────────────── Spin Flag ────────────────────────────────

const (
	// SpinBudget is the number of relaxed CAS attempts before the spinner
	// yields its P back to the scheduler. Critical sections are a single
	// fixed-size copy, so contention rarely outlives the first few attempts.
	SpinBudget = 64
)

// ──────────────────────────── Run Loop Pacing ─────────────────────────────

const (
	// DefaultSleep is how long a run loop parks when a sleep trigger fires
	// and no explicit sleep duration was configured.
	DefaultSleep = 1 * time.Millisecond

	// DefaultCooldown is how long a control switch stays hot after the last
	// iteration that did work. Empty-loop sleeps are suppressed while hot.
	DefaultCooldown = 1 * time.Second

	// StatReportEvery controls how often the CLI prints the last snapshot.
	StatReportEvery = 1 * time.Second
)
