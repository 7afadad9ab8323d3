// Copyright © 2018 The ELPS authors

// Package debugger implements a debugger engine for rlisp runtimes.  It
// provides function breakpoints, stepping between calls, variable
// inspection and debug evaluation without any protocol dependencies.
//
// The engine observes a runtime through the lisp.Profiler call hooks.
// When a call should pause, the eval goroutine blocks inside the hook
// until a consumer such as the DAP server resumes it.  While the eval
// goroutine is blocked the consumer may inspect and evaluate in the
// runtime through Inspect and Eval.
package debugger

import (
	"errors"
	"io"
	"sync"

	"github.com/luthersystems/rlisp/lisp"
)

// EventType identifies the kind of debug event.
type EventType int

const (
	// EventStopped indicates execution has paused.
	EventStopped EventType = iota
	// EventContinued indicates execution has resumed.
	EventContinued
	// EventExited indicates the program has finished.
	EventExited
)

// StopReason describes why execution paused.
type StopReason string

const (
	StopStep               StopReason = "step"
	StopEntry              StopReason = "entry"
	StopPause              StopReason = "pause"
	StopFunctionBreakpoint StopReason = "function breakpoint"
)

// Event is sent to the event callback when the debugger state changes.
type Event struct {
	Type     EventType
	Reason   StopReason
	Function string      // the function being entered, for EventStopped
	ExitCode int         // set for EventExited
	Err      error       // the error ending the program, for EventExited
	BP       *Breakpoint // non-nil for breakpoint stops
}

// EventCallback is called when the debugger state changes.  It runs on the
// eval goroutine and must not call back into the runtime.
type EventCallback func(Event)

// ErrNotPaused is returned by commands that require a paused program.
var ErrNotPaused = errors.New("program is not paused")

// ErrRunning is returned when the runtime is busy evaluating the program.
var ErrRunning = errors.New("program is running")

type action int

const (
	actionContinue action = iota
	actionStepInto
	actionStepOver
	actionStepOut
	actionDisconnect
)

// Engine implements lisp.Profiler to pause a runtime at function calls.
type Engine struct {
	rt          *lisp.Runtime
	breakpoints *BreakpointStore
	stepper     *Stepper
	onEvent     EventCallback

	mu             sync.Mutex
	enabled        bool
	stopOnEntry    bool
	entered        bool
	pauseRequested bool
	evaluating     bool
	running        bool
	paused         bool
	pausedFun      string

	pauseCh chan action
}

var _ lisp.Profiler = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithEventCallback sets the function called on debugger state changes.
func WithEventCallback(cb EventCallback) Option {
	return func(e *Engine) {
		e.onEvent = cb
	}
}

// WithStopOnEntry pauses the program at its first function call.
func WithStopOnEntry(stop bool) Option {
	return func(e *Engine) {
		e.stopOnEntry = stop
	}
}

// WithBreakpoints makes the engine use store, which may be populated before
// the engine exists.
func WithBreakpoints(store *BreakpointStore) Option {
	return func(e *Engine) {
		e.breakpoints = store
	}
}

// New returns a debugger engine for rt.  The engine does nothing until it
// is enabled.
func New(rt *lisp.Runtime, opts ...Option) *Engine {
	e := &Engine{
		rt:          rt,
		breakpoints: NewBreakpointStore(),
		stepper:     NewStepper(),
		pauseCh:     make(chan action, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Runtime returns the runtime being debugged.
func (e *Engine) Runtime() *lisp.Runtime {
	return e.rt
}

// Breakpoints returns the breakpoint store.
func (e *Engine) Breakpoints() *BreakpointStore {
	return e.breakpoints
}

// SetEventCallback replaces the event callback.
func (e *Engine) SetEventCallback(cb EventCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent = cb
}

// SetStopOnEntry changes whether the program pauses at its first call.  It
// has no effect once the program has made a call.
func (e *Engine) SetStopOnEntry(stop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopOnEntry = stop
}

// IsEnabled implements lisp.Profiler.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Enable attaches the engine to its runtime.
func (e *Engine) Enable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enabled {
		return errors.New("debugger already enabled")
	}
	e.enabled = true
	e.rt.Profiler = e
	return nil
}

// Complete detaches the engine from its runtime.
func (e *Engine) Complete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	if e.rt.Profiler == lisp.Profiler(e) {
		e.rt.Profiler = nil
	}
	return nil
}

func noop() {}

// Start implements lisp.Profiler.  It blocks the eval goroutine when the
// call to fun should pause.
func (e *Engine) Start(fun lisp.Object) func() {
	e.mu.Lock()
	if !e.enabled || e.evaluating {
		e.mu.Unlock()
		return noop
	}
	var reason StopReason
	switch {
	case e.stopOnEntry && !e.entered:
		reason = StopEntry
	case e.pauseRequested:
		reason = StopPause
	}
	e.entered = true
	e.pauseRequested = false
	e.mu.Unlock()

	name := e.rt.FunName(fun)
	depth := e.rt.Stack.Height()
	var bp *Breakpoint
	if reason == "" {
		if bp = e.matchBreakpoint(name); bp != nil {
			reason = StopFunctionBreakpoint
		} else if e.stepper.ShouldPause(depth) {
			reason = StopStep
		}
	}
	if reason != "" {
		e.pause(Event{Type: EventStopped, Reason: reason, Function: name, BP: bp}, depth)
	}
	return noop
}

// StartGC implements lisp.Profiler.
func (e *Engine) StartGC() func() {
	return noop
}

func (e *Engine) matchBreakpoint(name string) *Breakpoint {
	bp := e.breakpoints.Match(name)
	if bp == nil || bp.Condition == "" {
		return bp
	}
	e.setEvaluating(true)
	ok := EvalCondition(e.rt, bp.Condition)
	e.setEvaluating(false)
	if !ok {
		return nil
	}
	return bp
}

func (e *Engine) setEvaluating(v bool) {
	e.mu.Lock()
	e.evaluating = v
	e.mu.Unlock()
}

// pause blocks the eval goroutine until a command arrives.
func (e *Engine) pause(evt Event, depth int) {
	e.mu.Lock()
	e.paused = true
	e.pausedFun = evt.Function
	e.mu.Unlock()

	e.emit(evt)
	act := <-e.pauseCh

	switch act {
	case actionStepInto:
		e.stepper.Set(StepInto, depth)
	case actionStepOver:
		e.stepper.Set(StepOver, depth)
	case actionStepOut:
		e.stepper.Set(StepOut, depth)
	default:
		e.stepper.Reset()
	}
	if act != actionDisconnect {
		e.emit(Event{Type: EventContinued})
	}
}

func (e *Engine) emit(evt Event) {
	e.mu.Lock()
	cb := e.onEvent
	e.mu.Unlock()
	if cb != nil {
		cb(evt)
	}
}

// IsPaused reports whether the eval goroutine is blocked at a call.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// PausedFunction returns the name of the function whose call is paused.
func (e *Engine) PausedFunction() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pausedFun, e.paused
}

func (e *Engine) resume(act action) error {
	e.mu.Lock()
	if !e.paused {
		e.mu.Unlock()
		return ErrNotPaused
	}
	e.paused = false
	e.pausedFun = ""
	e.mu.Unlock()
	e.pauseCh <- act
	return nil
}

// Resume continues a paused program until the next breakpoint.
func (e *Engine) Resume() error {
	return e.resume(actionContinue)
}

// StepInto continues a paused program until the next function call.
func (e *Engine) StepInto() error {
	return e.resume(actionStepInto)
}

// StepOver continues a paused program until the next call that is not
// made from inside the paused call.
func (e *Engine) StepOver() error {
	return e.resume(actionStepOver)
}

// StepOut continues a paused program until the next call made after the
// function that made the paused call returns.
func (e *Engine) StepOut() error {
	return e.resume(actionStepOut)
}

// RequestPause pauses the program at its next function call.
func (e *Engine) RequestPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseRequested = true
}

// Disconnect disables the engine and lets a paused program run to
// completion.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	e.enabled = false
	paused := e.paused
	e.paused = false
	e.mu.Unlock()
	if paused {
		e.pauseCh <- actionDisconnect
	}
}

// Inspect calls fn with the runtime while it is safe to read: when the
// program is paused or not running.
func (e *Engine) Inspect(fn func(rt *lisp.Runtime)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && !e.paused {
		return ErrRunning
	}
	fn(e.rt)
	return nil
}

// Eval evaluates source while the program is paused or not running and
// returns the printed value of the last form.  When paused, the forms are
// evaluated in the scope of the call site with the parameters of the
// paused function bound to its arguments.  Calls made by the evaluation do
// not pause.
func (e *Engine) Eval(source string) (string, error) {
	e.mu.Lock()
	if e.running && !e.paused {
		e.mu.Unlock()
		return "", ErrRunning
	}
	paused := e.paused
	e.evaluating = true
	e.mu.Unlock()
	defer e.setEvaluating(false)

	rt := e.rt
	var result lisp.Object
	if paused {
		result = evalInFrame(rt, "debug-eval", source)
	} else {
		result = rt.LoadString("debug-eval", source)
	}
	if result.IsError() {
		return "", rt.GoError(result)
	}
	return rt.Format(result), nil
}

// evalInFrame evaluates source in the current scope with the parameters of
// the innermost lisp function call bound to its arguments.
func evalInFrame(rt *lisp.Runtime, name string, source string) lisp.Object {
	if frame := rt.Stack.Top(); frame != nil && frame.Kind == lisp.FuncLisp {
		ns := rt.NewNamespace(lisp.Nil)
		rt.NewScope(ns)
		defer rt.EndScope()
		bindArguments(rt, rt.Namespace(ns), frame)
	}
	return rt.LoadString(name, source)
}

func bindArguments(rt *lisp.Runtime, ns *lisp.Namespace, frame *lisp.CallFrame) {
	fixed, rest := paramNames(rt, frame.Fun)
	args := rt.FrameArgs(frame)
	for i, name := range fixed {
		v := lisp.Nil
		if i < len(args) {
			v = args[i]
		}
		ns.Set(rt.Intern(name), v)
	}
	if rest != "" {
		var tail []lisp.Object
		if len(args) > len(fixed) {
			tail = args[len(fixed):]
		}
		ns.Set(rt.Intern(rest), rt.List(tail...))
	}
}

// Run loads the program read from r on the calling goroutine, pausing at
// breakpoints, and sends EventExited when it finishes.  A program ending
// in an error exits with code 1.
func (e *Engine) Run(name string, r io.Reader) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunning
	}
	e.running = true
	e.mu.Unlock()

	err := e.rt.GoError(e.rt.Load(name, r))
	if err != nil {
		e.rt.CleanStack()
	}

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	code := 0
	if err != nil {
		code = 1
	}
	e.emit(Event{Type: EventExited, ExitCode: code, Err: err})
	return err
}
