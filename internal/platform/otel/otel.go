// Package otel is the tracing counterpart to common/mopentelemetry/otel.go:
// a resource-tagged TracerProvider, installed globally so any package can
// call otel.Tracer(name) and get a real span. Metrics/log exporters are
// dropped from the teacher's version (see DESIGN.md) — only tracing is in
// SPEC_FULL.md's ambient stack.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// Config controls whether tracing is installed at all (spec.md §6.4's
// otel.enabled/otel.service_name).
type Config struct {
	Enabled     bool
	ServiceName string
}

// Telemetry owns the installed TracerProvider and its shutdown hook.
type Telemetry struct {
	ServiceName string
	provider    *sdktrace.TracerProvider
}

// Init installs a global TracerProvider per cfg. When cfg.Enabled is
// false, the global no-op TracerProvider is left in place and every
// otel.Tracer(...).Start call becomes a cheap no-op, matching the
// teacher's "telemetry is always constructed, only the exporter target
// changes" shape without requiring a collector for local development —
// the exporter here writes to nothing in the disabled case rather than
// dialing out, which is the one place this package diverges from the
// teacher's OTLP-gRPC-only exporter.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{ServiceName: cfg.ServiceName}, nil
	}

	resource, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("otel: exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Telemetry{ServiceName: cfg.ServiceName, provider: provider}, nil
}

// Shutdown flushes and stops the TracerProvider, a no-op when tracing was
// never enabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	return t.provider.Shutdown(ctx)
}
