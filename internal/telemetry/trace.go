package telemetry

import (
	"context"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates the root span for one CLI command.
//
// Usage:
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "events list")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdPath string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("eventpro/cmd")
	ctx, span := tracer.Start(ctx, "command "+cmdPath)

	span.SetAttributes(
		attribute.String("command", cmdPath),
		attribute.String("component", "cli"),
	)

	return ctx, span
}

// StartRequestSpan creates a client span for a backend call. route is the
// path template, so spans group by endpoint rather than by ID.
func StartRequestSpan(ctx context.Context, method, route string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("eventpro/api")
	ctx, span := tracer.Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)

	return ctx, span
}

// InjectHeaders writes the trace context of ctx into h
func InjectHeaders(ctx context.Context, h http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}

// RecordStatus stores the response status; 4xx and 5xx mark the span failed
func RecordStatus(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= 400 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
	}
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
