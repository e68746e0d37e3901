// Package telemetry installs the OpenTelemetry tracer provider used by the
// booking engine.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName is reported as service.name on every exported span.
const ServiceName = "activity-booking"

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Setup returns the tracer provider for the service.
//
// Tracing is opt-in: an empty endpoint yields a no-op provider and leaves the
// global provider untouched. Otherwise spans are batched to the OTLP/HTTP
// collector at endpoint and the provider is registered globally.
func Setup(ctx context.Context, endpoint, serviceName string) (trace.TracerProvider, ShutdownFunc, error) {
	noopShutdown := func(context.Context) error { return nil }

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop.NewTracerProvider(), noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, noopShutdown, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	tp, err := NewProvider(ctx, serviceName, exporter)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, noopShutdown, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp, tp.Shutdown, nil
}

// NewProvider builds an always-sampling SDK provider that batches spans to
// exporter and tags them with serviceName.
func NewProvider(ctx context.Context, serviceName string, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	if exporter == nil {
		return nil, fmt.Errorf("telemetry: span exporter is required")
	}
	if strings.TrimSpace(serviceName) == "" {
		serviceName = ServiceName
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}
