package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	for name, opts := range map[string]Options{
		"disabled":    {ServiceName: "svc", Endpoint: "http://localhost:4318"},
		"no endpoint": {ServiceName: "svc", Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), opts)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
			if otel.GetTracerProvider() != before {
				t.Fatal("disabled setup must not replace the global provider")
			}
		})
	}
}

func TestSetupInstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Setup(context.Background(), Options{
		ServiceName: "taskboard-api",
		Enabled:     true,
		Endpoint:    "http://127.0.0.1:4318",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected sdk tracer provider, got %T", otel.GetTracerProvider())
	}
	// Nothing was recorded, so shutdown does not need to reach the collector.
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
