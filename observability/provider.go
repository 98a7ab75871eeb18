package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/authkit/logger"
)

// Providers bundles the exporting tracer and meter providers with the
// instruments created on them.
type Providers struct {
	Traces  *sdktrace.TracerProvider
	Meters  *sdkmetric.MeterProvider
	Metrics *Metrics
}

// Start creates OTLP HTTP exporters for traces and metrics and installs
// them as the global providers along with W3C trace context propagation.
func Start(ctx context.Context, cfg Config) (*Providers, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, &cfg, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, &cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	p := &Providers{Traces: tp, Meters: mp}
	if p.Metrics, err = NewMetrics(mp.Meter(InstrumentationName)); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("observability started", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"metric_interval", cfg.MetricInterval.String(),
	))
	return p, nil
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.Traces.Shutdown(ctx), p.Meters.Shutdown(ctx))
}
