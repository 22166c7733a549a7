package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with resolution-specific span
// management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartResolve starts a span covering one end-to-end resolution.
	StartResolve(ctx context.Context, players []string) (context.Context, trace.Span)

	// StartFetch starts a span covering one upstream fetch, nested under
	// the resolve span when one is active.
	StartFetch(ctx context.Context, source, player string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartResolve(ctx context.Context, players []string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "stats.resolve",
		trace.WithAttributes(
			attribute.StringSlice("query.players", players),
			attribute.Int("query.player_count", len(players)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) StartFetch(ctx context.Context, source, player string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "stats.fetch."+source,
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.String("player", player),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a Tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartResolve(ctx context.Context, _ []string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "stats.resolve")
}

func (t *noopTracer) StartFetch(ctx context.Context, source, _ string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "stats.fetch."+source)
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
