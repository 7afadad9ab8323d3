// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/rlisp/lisp"
)

// pprofAnnotator labels the goroutine running the interpreter with the
// function being called so CPU profiles taken with pprof can be broken down
// by lisp function.  It does not start profiling itself.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ lisp.Profiler = &pprofAnnotator{}

// NewPprofAnnotator returns a profiler that sets pprof goroutine labels.
func NewPprofAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) lisp.Profiler {
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	p.enabled = false
	return nil
}

func (p *pprofAnnotator) Start(fun lisp.Object) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	label, _ := p.funLabels(fun)
	return p.label(label)
}

func (p *pprofAnnotator) StartGC() func() {
	if !p.enabled {
		return func() {}
	}
	return p.label(GCLabel)
}

// label applies the function label to the current goroutine.  Labels are
// kept on a chain of contexts instead of using pprof.Do.
func (p *pprofAnnotator) label(label string) func() {
	oldContext := p.currentContext
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", label))
	pprof.SetGoroutineLabels(p.currentContext)
	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
