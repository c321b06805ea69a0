package trace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// StartClientSpan opens a client span for an outbound request and writes the trace context
// into its headers. The caller ends the span.
func StartClientSpan(ctx context.Context, tracerName, operation string, req *http.Request) (context.Context, oteltrace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, operation,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Path),
		),
	)
	propagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return ctx, span
}
