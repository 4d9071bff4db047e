package thread

import (
	"threadpace/native"
	"threadpace/pacing"
)

// Option configures a Thread at construction.
type Option func(*Thread)

// WithName names the OS thread from inside it before the body runs.
func WithName(name string) Option {
	return func(t *Thread) { t.initName = name }
}

// WithAffinity pins the OS thread to cores before the body runs.
func WithAffinity(cores []int) Option {
	return func(t *Thread) { t.initCores = append([]int{}, cores...) }
}

// WithConfig installs a pacing configuration. nil is ignored.
func WithConfig(config *pacing.Config) Option {
	return func(t *Thread) { t.SetConfig(config) }
}

// WithControl overrides the platform control variant.
func WithControl(c native.Control) Option {
	return func(t *Thread) {
		if c != nil {
			t.control = c
		}
	}
}
