// Copyright © 2018 The ELPS authors

// Package profiler provides lisp.Profiler implementations.  The annotators
// report each function call and each collection of a Runtime as trace spans
// (OpenTelemetry, OpenCensus), pprof goroutine labels or callgrind records.
package profiler

import (
	"fmt"

	"github.com/luthersystems/rlisp/lisp"
)

// GCLabel names the span or record of a garbage collection.
const GCLabel = "gc"

// profiler holds the state shared by every implementation.
type profiler struct {
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

// Option configures a profiler.
type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Start(fun lisp.Object) func() {
	return func() {}
}

func (p *profiler) StartGC() func() {
	return func() {}
}

// funLabels returns a label for fun and its name.  The label is the name
// unless a FunLabeler provides another one.
func (p *profiler) funLabels(fun lisp.Object) (string, string) {
	name := p.runtime.FunName(fun)
	label := ""
	if p.funLabeler != nil {
		label = p.funLabeler(p.runtime, fun)
	}
	if label == "" {
		label = name
	}
	return label, name
}

// skipTrace decides whether the call of fun goes unrecorded.
func (p *profiler) skipTrace(fun lisp.Object) bool {
	return !p.enabled || !fun.IsFunction() || p.skipFilter != nil && p.skipFilter(p.runtime, fun)
}

// funKind returns the kind of fun for span attributes.
func (p *profiler) funKind(fun lisp.Object) string {
	return p.runtime.Function(fun).Kind.String()
}
