// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader reads lisp forms from source text, allocating them in a Runtime.
type Reader interface {
	Read(rt *Runtime, name string, r io.Reader) ([]Object, error)
}

// DefaultMaxCallDepth bounds the call stack when no limit is configured.
const DefaultMaxCallDepth = 10000

// Runtime is the state of an interpreter.  A Runtime is not safe for use
// by multiple goroutines.
type Runtime struct {
	Heap     *Heap
	Stack    *CallStack
	Reader   Reader
	Stderr   io.Writer
	Stdout   io.Writer
	Profiler Profiler

	symbols  map[string]Object
	global   Object
	scope    []Object
	stack    []Object
	specials []Object
	// callScopes holds the scopes of callers suspended while a lisp
	// function runs in its captured scope.
	callScopes [][]Object

	gcStats   GCStats
	gcLogging bool
}

// NewRuntime returns a Runtime with the core builtins and special forms
// bound in its global namespace.
func NewRuntime(config ...Config) (*Runtime, error) {
	rt := &Runtime{
		Heap:    newHeap(DefaultGCThreshold),
		Stack:   &CallStack{MaxHeight: DefaultMaxCallDepth},
		Stderr:  os.Stderr,
		Stdout:  os.Stdout,
		symbols: make(map[string]Object),
	}
	rt.global = rt.NewNamespace(rt.Intern("global"))
	rt.scope = []Object{rt.global}
	for _, fn := range config {
		if err := fn(rt); err != nil {
			return nil, err
		}
	}
	if lerr := rt.AddSpecialOps(langSpecialOps...); lerr != Nil {
		return nil, rt.GoError(lerr)
	}
	if lerr := rt.AddBuiltins(langBuiltins...); lerr != Nil {
		return nil, rt.GoError(lerr)
	}
	return rt, nil
}

// Eval evaluates a single form.  The result, like any object, is only
// guaranteed to survive until the next collection unless it is reachable
// from a root.
func (rt *Runtime) Eval(form Object) Object {
	return rt.Evaluate(form)
}

// Load reads every form from r and evaluates them in order, stopping at
// the first error.  It returns the value of the last form evaluated.
func (rt *Runtime) Load(name string, r io.Reader) Object {
	if rt.Reader == nil {
		return rt.Errorf("runtime-error", "no reader")
	}
	forms, err := rt.Reader.Read(rt, name, r)
	if err != nil {
		return rt.HostError(err)
	}
	base := len(rt.stack)
	rt.stack = append(rt.stack, forms...)
	result := Nil
	for _, form := range forms {
		result = rt.Evaluate(form)
		if result.IsError() {
			break
		}
		rt.Push(result)
		rt.checkpoint()
		rt.Pop()
	}
	rt.truncate(base)
	return result
}

// LoadString evaluates the forms in source.
func (rt *Runtime) LoadString(name, source string) Object {
	return rt.Load(name, strings.NewReader(source))
}

// LoadFile evaluates the forms in the file at path.  Syntax errors name
// the file by path.
func (rt *Runtime) LoadFile(path string) Object {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return rt.HostError(err)
	}
	defer f.Close() //nolint:errcheck // read-only file
	return rt.Load(path, f)
}

// Rep reads, evaluates and prints every form in src.  It returns the
// printed value of the last form.  An error value is returned as an
// *ErrorVal; the evaluation stack is cleaned before returning it.
func (rt *Runtime) Rep(src []byte) (string, error) {
	if rt.Reader == nil {
		return "", fmt.Errorf("no reader")
	}
	forms, err := rt.Reader.Read(rt, "stdin", bytes.NewReader(src))
	if err != nil {
		return "", err
	}
	base := len(rt.stack)
	rt.stack = append(rt.stack, forms...)
	var out string
	for _, form := range forms {
		result := rt.Evaluate(form)
		if result.IsError() {
			err := rt.GoError(result)
			rt.CleanStack()
			return "", err
		}
		out = rt.Format(result)
		rt.checkpoint()
	}
	rt.truncate(base)
	return out, nil
}
