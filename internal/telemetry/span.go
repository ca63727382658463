package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Span is a trace span started by a [Recorder].
type Span struct {
	trace.Span
	recorder *Recorder
	ctx      context.Context
}

// StartSpan starts a new span and counts it as an in-flight operation until
// [Span.End] is called.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	ctx, span := r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	r.operationCount(ctx, 1, String("operation", name))
	r.operationsInFlightCount(ctx, 1)

	return ctx, &Span{span, r, ctx}
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	s.Span.SetAttributes(asAttrKeyValues(attrs)...)
}

// End completes the span.
func (s *Span) End() {
	s.recorder.operationsInFlightCount(s.ctx, -1)
	s.Span.End()
}
