package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNormalize(t *testing.T) {
	cfg := Config{Endpoint: " otel:4317 "}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Endpoint != "otel:4317" || cfg.ServiceName != "ticketbot" || cfg.SampleRatio != 1 {
		t.Fatalf("defaults: %+v", cfg)
	}
	if err := (&Config{SampleRatio: 1.5}).Normalize(); err == nil {
		t.Fatal("ratio above 1 accepted")
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := Setup(context.Background(), Config{}, "dev")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("provider replaced while disabled")
	}
}

func TestSetupInstallsProvider(t *testing.T) {
	prevProvider, prevExporter := otel.GetTracerProvider(), newExporter
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		newExporter = prevExporter
	})

	mem := tracetest.NewInMemoryExporter()
	newExporter = func(context.Context, ...otlptracegrpc.Option) (sdktrace.SpanExporter, error) {
		return mem, nil
	}
	shutdown, err := Setup(context.Background(), Config{Endpoint: "otel:4317", Insecure: true, ServiceName: "ticketbot", SampleRatio: 1}, "v1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	if !ok {
		t.Fatalf("provider = %T", otel.GetTracerProvider())
	}
	_, span := otel.Tracer("test").Start(context.Background(), "receipt.submit")
	span.End()

	// The in-memory exporter forgets its spans on shutdown, so read them
	// after a flush.
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := mem.GetSpans()
	if len(spans) != 1 || spans[0].Name != "receipt.submit" {
		t.Fatalf("spans = %v", spans)
	}
	if svc, ok := spans[0].Resource.Set().Value("service.name"); !ok || svc.AsString() != "ticketbot" {
		t.Fatalf("service.name = %v", svc)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupExporterError(t *testing.T) {
	prev := newExporter
	t.Cleanup(func() { newExporter = prev })
	newExporter = func(context.Context, ...otlptracegrpc.Option) (sdktrace.SpanExporter, error) {
		return nil, errors.New("dial")
	}
	if _, err := Setup(context.Background(), Config{Endpoint: "otel:4317", SampleRatio: 1}, "v1"); err == nil {
		t.Fatal("expected exporter error")
	}
}
