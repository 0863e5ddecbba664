package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "engine"

// StartPhaseSpan starts a span for one phase execution attempt.
func StartPhaseSpan(ctx context.Context, orderID, phaseCode, tier string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "phase",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("phase.code", phaseCode),
			attribute.String("order.tier", tier),
		),
	)
}

// StartModelCallSpan starts a span for an outbound model call.
func StartModelCallSpan(ctx context.Context, model string, maxTokens int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "modelcall",
		trace.WithAttributes(
			attribute.String("model.id", model),
			attribute.Int("model.max_tokens", maxTokens),
		),
	)
}
