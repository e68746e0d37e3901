package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	tp, shutdown, err := Setup(context.Background(), "  ", ServiceName)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Fatalf("expected a no-op provider, got %T", tp)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestNewProvider_ExportsWithServiceName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := NewProvider(ctx, "booking-test", exporter)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	_, span := tp.Tracer("test").Start(ctx, "booking.Book")
	span.End()
	if err := tp.ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush returned error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "booking.Book" {
		t.Fatalf("expected one booking.Book span, got %v", spans)
	}
	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "booking-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("service.name missing from resource %v", spans[0].Resource.Attributes())
	}

	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

func TestNewProvider_RequiresExporter(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(context.Background(), ServiceName, nil); err == nil {
		t.Fatalf("expected error without exporter")
	}
}
