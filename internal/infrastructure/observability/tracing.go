package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "venture-canvas/turn-api"
)

// GetTracer returns the tracer for the turn-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TurnAttributes returns common attributes for turn spans.
func TurnAttributes(projectID string, stage int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("turn.project_id", projectID),
		attribute.Int("turn.stage", stage),
	}
}

// StartTurnSpan starts a new span covering one user turn end to end.
func StartTurnSpan(ctx context.Context, projectID string, stage int) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "turn.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(TurnAttributes(projectID, stage)...),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddToolBatchEvent adds a tool fan-out event to a span.
func AddToolBatchEvent(span trace.Span, size int) {
	span.AddEvent("tool.batch",
		trace.WithAttributes(
			attribute.Int("tool.batch_size", size),
		),
	)
}
