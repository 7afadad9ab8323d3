// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"
)

// Config is a function that configures a Runtime.
type Config func(rt *Runtime) error

// WithReader returns a Config that makes the runtime use r to parse source
// streams.  There is no default Reader.
func WithReader(r Reader) Config {
	return func(rt *Runtime) error {
		rt.Reader = r
		return nil
	}
}

// WithStderr returns a Config that directs diagnostic output to w.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithStdout returns a Config that directs the output of print functions
// to w.
func WithStdout(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stdout = w
		return nil
	}
}

// WithGCThreshold returns a Config that sets the minimum live object count
// that triggers a collection.
func WithGCThreshold(n int) Config {
	return func(rt *Runtime) error {
		if n <= 0 {
			return fmt.Errorf("gc threshold must be positive: %d", n)
		}
		rt.Heap.threshold = n
		rt.Heap.minThreshold = n
		return nil
	}
}

// WithMaxCallDepth returns a Config that prevents the call stack from
// exceeding n frames.  Zero removes the limit.
func WithMaxCallDepth(n int) Config {
	return func(rt *Runtime) error {
		if n < 0 {
			return fmt.Errorf("max call depth must not be negative: %d", n)
		}
		rt.Stack.MaxHeight = n
		return nil
	}
}

// WithGCLogging returns a Config that writes a line to Stderr after every
// collection.
func WithGCLogging(enabled bool) Config {
	return func(rt *Runtime) error {
		rt.gcLogging = enabled
		return nil
	}
}

// WithProfiler returns a Config that installs p.
func WithProfiler(p Profiler) Config {
	return func(rt *Runtime) error {
		rt.Profiler = p
		return nil
	}
}
