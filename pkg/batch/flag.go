package batch

import "sync/atomic"

// Flag is the cooperative cancellation signal. The caller sets it from any
// goroutine (a signal handler, a UI control); the runner only reads it, and
// only at record boundaries, so an in-flight send always completes.
type Flag struct {
	set atomic.Bool
}

// Set requests cancellation. Safe to call concurrently and repeatedly.
func (f *Flag) Set() { f.set.Store(true) }

// IsSet reports whether cancellation has been requested.
func (f *Flag) IsSet() bool { return f.set.Load() }
