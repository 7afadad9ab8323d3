// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/luthersystems/rlisp/lisp"
	"github.com/luthersystems/rlisp/lisp/x/profiler"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracing APIs accepted by --trace-api.
const (
	traceOpenTelemetry = "opentelemetry"
	traceOpenCensus    = "opencensus"
)

// spanWriter writes one line per finished span: the span name and its
// duration.
type spanWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *spanWriter) write(name string, d time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	fmt.Fprintf(sw.w, "%s\t%s\n", name, d) //nolint:errcheck // best-effort trace output
}

// ExportSpans implements sdktrace.SpanExporter.
func (sw *spanWriter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		sw.write(s.Name(), s.EndTime().Sub(s.StartTime()))
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (sw *spanWriter) Shutdown(context.Context) error {
	return nil
}

// ExportSpan implements the OpenCensus trace.Exporter.
func (sw *spanWriter) ExportSpan(s *octrace.SpanData) {
	sw.write(s.Name, s.EndTime.Sub(s.StartTime))
}

// newTraceProfiler returns an annotator for the named tracing API whose
// spans are written to w, and a function that flushes the spans.
func newTraceProfiler(rt *lisp.Runtime, api string, w io.Writer) (lisp.Profiler, func() error, error) {
	sw := &spanWriter{w: w}
	switch api {
	case traceOpenTelemetry:
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(sw),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		p := profiler.NewOpenTelemetryAnnotator(rt, context.Background(), profiler.WithDocLabeler())
		return p, func() error { return tp.Shutdown(context.Background()) }, nil
	case traceOpenCensus:
		octrace.RegisterExporter(sw)
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		p := profiler.NewOpenCensusAnnotator(rt, context.Background(), profiler.WithDocLabeler())
		return p, func() error {
			octrace.UnregisterExporter(sw)
			return nil
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown tracing api: %q", api)
}
