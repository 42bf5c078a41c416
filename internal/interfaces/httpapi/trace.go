package httpapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var apiTracer = otel.Tracer("fixture-insight/internal/interfaces/httpapi")

// startSpan opens a handler span under the request span from RequestTracing.
// Requests RequestTracing filters out (health probes) get no handler span.
func startSpan(ctx context.Context, handler string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return apiTracer.Start(ctx, handlerSpanPrefix+handler)
}
