// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/rlisp/lisp"
	"go.opencensus.io/trace"
)

var _ lisp.Profiler = &ocAnnotator{}

type ocAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       []context.Context
}

// NewOpenCensusAnnotator returns a profiler that starts an OpenCensus span
// for each function call and collection of runtime.
func NewOpenCensusAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) lisp.Profiler {
	p := &ocAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *ocAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.profiler.Enable()
}

func (p *ocAnnotator) Complete() error {
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	p.enabled = false
	return nil
}

func (p *ocAnnotator) Start(fun lisp.Object) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	label, name := p.funLabels(fun)
	p.push(label)
	p.currentSpan.AddAttributes(
		trace.StringAttribute("function", name),
		trace.StringAttribute("kind", p.funKind(fun)),
		trace.Int64Attribute("depth", int64(p.runtime.Stack.Height())),
	)
	return p.pop
}

func (p *ocAnnotator) StartGC() func() {
	if !p.enabled {
		return func() {}
	}
	p.push(GCLabel)
	return func() {
		stats := p.runtime.GCStats()
		p.currentSpan.Annotate([]trace.Attribute{
			trace.Int64Attribute("live", int64(stats.Live)),
			trace.Int64Attribute("freed", int64(stats.Freed)),
		}, "collected")
		p.pop()
	}
}

func (p *ocAnnotator) push(label string) {
	p.contexts = append(p.contexts, p.currentContext)
	p.currentContext, p.currentSpan = trace.StartSpan(p.currentContext, label)
}

func (p *ocAnnotator) pop() {
	p.currentSpan.End()
	n := len(p.contexts)
	p.currentContext = p.contexts[n-1]
	p.contexts = p.contexts[:n-1]
	p.currentSpan = trace.FromContext(p.currentContext)
}
