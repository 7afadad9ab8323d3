// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"fmt"
	"io"
)

// CallStack records the functions being called.  It is used for error
// traces, the profiler and the debugger; arguments live on the evaluation
// stack.
type CallStack struct {
	Frames    []CallFrame
	MaxHeight int
}

// CallFrame is one frame in the CallStack
type CallFrame struct {
	Fun  Object
	Name string
	Kind FuncKind
	// Height is the evaluation stack height when the call began.
	Height int
}

func (f *CallFrame) String() string {
	if f.Kind == FuncLisp {
		return f.Name
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.Kind)
}

// StackOverflowError is returned by CallStack.Push when a call would exceed
// the maximum height.
type StackOverflowError struct {
	Height int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("call stack height exceeds %d", e.Height)
}

// Top returns the innermost frame or nil if the stack is empty.
func (s *CallStack) Top() *CallFrame {
	if len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Push adds a frame.  It returns an error, without pushing, when the stack
// is full.
func (s *CallStack) Push(frame CallFrame) error {
	if s.MaxHeight > 0 && len(s.Frames) >= s.MaxHeight {
		return &StackOverflowError{Height: s.MaxHeight}
	}
	s.Frames = append(s.Frames, frame)
	return nil
}

// Pop removes the innermost frame.  Pop panics if the stack is empty.
func (s *CallStack) Pop() CallFrame {
	if len(s.Frames) == 0 {
		panic("lisp: pop of empty call stack")
	}
	top := s.Frames[len(s.Frames)-1]
	s.Frames = s.Frames[:len(s.Frames)-1]
	return top
}

// Height returns the number of frames.
func (s *CallStack) Height() int {
	return len(s.Frames)
}

// Names returns the frame descriptions, outermost first.
func (s *CallStack) Names() []string {
	if len(s.Frames) == 0 {
		return nil
	}
	names := make([]string, len(s.Frames))
	for i := range s.Frames {
		names[i] = s.Frames[i].String()
	}
	return names
}

// DebugPrint prints the stack to w, innermost frame first.
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	_n, err := fmt.Fprintln(bw, "Stack Trace [most recent call first]:")
	n += _n
	if err != nil {
		return n, err
	}
	for i := len(s.Frames) - 1; i >= 0; i-- {
		_n, err = fmt.Fprintf(bw, "  height %d: %s\n", i, s.Frames[i].String())
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Push pushes o onto the evaluation stack.
func (rt *Runtime) Push(o Object) {
	rt.stack = append(rt.stack, o)
}

// Pop removes and returns the top of the evaluation stack.  Pop panics if
// the stack is empty.
func (rt *Runtime) Pop() Object {
	n := len(rt.stack)
	if n == 0 {
		panic("lisp: pop of empty evaluation stack")
	}
	o := rt.stack[n-1]
	rt.stack = rt.stack[:n-1]
	return o
}

// Peek returns the i-th entry from the top of the evaluation stack.
func (rt *Runtime) Peek(i int) Object {
	n := len(rt.stack)
	if i < 0 || i >= n {
		panic(fmt.Sprintf("lisp: peek %d beyond evaluation stack of height %d", i, n))
	}
	return rt.stack[n-1-i]
}

// StackHeight returns the height of the evaluation stack.
func (rt *Runtime) StackHeight() int {
	return len(rt.stack)
}

// truncate drops every evaluation stack entry above height.
func (rt *Runtime) truncate(height int) {
	if height > len(rt.stack) {
		panic(fmt.Sprintf("lisp: truncate to %d beyond evaluation stack of height %d", height, len(rt.stack)))
	}
	rt.stack = rt.stack[:height]
}

// CleanStack empties the evaluation stack and any state left behind by an
// aborted evaluation.  The global scope is restored.
func (rt *Runtime) CleanStack() {
	rt.stack = rt.stack[:0]
	rt.callScopes = rt.callScopes[:0]
	rt.scope = []Object{rt.global}
	rt.Stack.Frames = rt.Stack.Frames[:0]
}

// FrameArgs returns a copy of the arguments of the call recorded by f.  The
// arguments of a special form are its unevaluated argument forms.  FrameArgs
// returns nil when f does not describe a call in progress.
func (rt *Runtime) FrameArgs(f *CallFrame) []Object {
	top := f.Height - 1
	if top < 0 || top >= len(rt.stack) || !rt.stack[top].IsInt() {
		return nil
	}
	n := int(rt.stack[top].AsInt())
	if n < 0 || n > top {
		return nil
	}
	return append([]Object(nil), rt.stack[top-n:top]...)
}
