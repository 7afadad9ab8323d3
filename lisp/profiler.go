// Copyright © 2018 The ELPS authors

package lisp

// Profiler observes function calls and collections.
type Profiler interface {
	// IsEnabled reports whether the runtime should call Start and StartGC.
	IsEnabled() bool
	// Enable turns on profiling.
	Enable() error
	// Complete ends the profiling session and flushes any output.
	Complete() error
	// Start marks the entry of fun and returns a function marking its
	// exit.
	Start(fun Object) func()
	// StartGC marks the start of a collection and returns a function
	// marking its end.
	StartGC() func()
}
