package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("fixture-insight/internal/usecase")

// startUsecaseSpan opens "usecase.<service>.<method>" as a child of the
// caller's span. Without a parent (cron runs, CLI) no span is started.
func startUsecaseSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return usecaseTracer.Start(ctx, "usecase."+service+"."+method,
		trace.WithAttributes(
			attribute.String("code.namespace", "usecase."+service),
			attribute.String("code.function", method),
		),
	)
}
