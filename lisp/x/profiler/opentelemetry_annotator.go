// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/rlisp/lisp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context
// key.
const ContextOpenTelemetryTracerKey = "otelParentTracer"

// DefaultTracerName is used when the parent context names no tracer.
const DefaultTracerName = "rlisp"

var _ lisp.Profiler = &otelAnnotator{}

type otelAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    trace.Span
}

// NewOpenTelemetryAnnotator returns a profiler that starts a span for each
// function call and collection of runtime, nested under parentContext.
func NewOpenTelemetryAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) lisp.Profiler {
	p := &otelAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	return p.profiler.Enable()
}

func (p *otelAnnotator) Complete() error {
	if p.currentSpan != nil {
		p.currentSpan.End()
	}
	p.enabled = false
	return nil
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = DefaultTracerName
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(fun lisp.Object) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	label, name := p.funLabels(fun)
	end := p.startSpan(label)
	p.currentSpan.SetAttributes(
		semconv.CodeNamespace(p.funKind(fun)),
		semconv.CodeFunction(name),
		attribute.Int("rlisp.call_depth", p.runtime.Stack.Height()),
	)
	return end
}

func (p *otelAnnotator) StartGC() func() {
	if !p.enabled {
		return func() {}
	}
	end := p.startSpan(GCLabel)
	span := p.currentSpan
	return func() {
		stats := p.runtime.GCStats()
		span.SetAttributes(
			attribute.Int("rlisp.gc.cycle", stats.Cycles),
			attribute.Int("rlisp.gc.live", stats.Live),
			attribute.Int("rlisp.gc.freed", stats.Freed),
		)
		end()
	}
}

// startSpan opens a child of the current span and returns a function that
// ends it and restores the parent.
func (p *otelAnnotator) startSpan(label string) func() {
	oldContext := p.currentContext
	p.currentContext, p.currentSpan = contextTracer(p.currentContext).Start(p.currentContext, label)
	span := p.currentSpan
	return func() {
		span.End()
		p.currentContext = oldContext
		p.currentSpan = trace.SpanFromContext(p.currentContext)
	}
}
