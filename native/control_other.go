// control_other.go - capability stub for platforms without native thread
// naming or affinity
//
// Every operation fails with ErrUnsupported rather than silently doing
// nothing, so callers can tell a pinned thread from an unpinned one.

//go:build !linux || tinygo

package native

func newDefault() Control { return UnsupportedControl{} }

// CurrentThreadID has no portable meaning here and always returns 0.
func CurrentThreadID() int { return 0 }
