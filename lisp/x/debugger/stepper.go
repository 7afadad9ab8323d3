// Copyright © 2018 The ELPS authors

package debugger

// StepMode is the active stepping behavior.
type StepMode int

const (
	// StepNone runs freely until a breakpoint.
	StepNone StepMode = iota
	// StepInto pauses at the next function call at any depth.
	StepInto
	// StepOver pauses at the next call made at the same or a lesser depth,
	// skipping calls made by the body of the paused function.
	StepOver
	// StepOut pauses at the next call made after the function that made
	// the paused call returns.
	StepOut
)

func (m StepMode) String() string {
	switch m {
	case StepInto:
		return "into"
	case StepOver:
		return "over"
	case StepOut:
		return "out"
	default:
		return "none"
	}
}

// Stepper decides whether a call at a given call stack depth ends the
// current step.  A Stepper is only used from the eval goroutine.
type Stepper struct {
	mode  StepMode
	depth int
}

// NewStepper returns a stepper in the StepNone state.
func NewStepper() *Stepper {
	return &Stepper{}
}

// Mode returns the current step mode.
func (s *Stepper) Mode() StepMode {
	return s.mode
}

// Depth returns the call depth recorded by the last step command.
func (s *Stepper) Depth() int {
	return s.depth
}

// Reset returns the stepper to StepNone.
func (s *Stepper) Reset() {
	s.mode = StepNone
	s.depth = 0
}

// Set starts a step of the given mode from a pause at depth.
func (s *Stepper) Set(mode StepMode, depth int) {
	s.mode = mode
	s.depth = depth
}

// ShouldPause reports whether a call entered at depth ends the step.  The
// stepper resets itself when it returns true.
func (s *Stepper) ShouldPause(depth int) bool {
	var pause bool
	switch s.mode {
	case StepInto:
		pause = true
	case StepOver:
		pause = depth <= s.depth
	case StepOut:
		pause = depth < s.depth
	}
	if pause {
		s.Reset()
	}
	return pause
}
