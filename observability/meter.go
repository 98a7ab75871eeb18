package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Instrument names.
const (
	MetricOperationTotal    = "authkit.operation.total"
	MetricOperationDuration = "authkit.operation.duration"
	MetricErrorTotal        = "authkit.error.total"
	MetricRequestTotal      = "authkit.http.request.total"
	MetricRequestDuration   = "authkit.http.request.duration"
)

func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// Metrics holds the instruments for engine operations and HTTP requests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations  metric.Int64Counter
	opDuration  metric.Float64Histogram
	errors      metric.Int64Counter
	requests    metric.Int64Counter
	reqDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.operations, MetricOperationTotal, "Engine operations by outcome"},
		{&m.errors, MetricErrorTotal, "Infrastructure errors by operation and component"},
		{&m.requests, MetricRequestTotal, "HTTP requests by route and status"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = inst
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.opDuration, MetricOperationDuration, "Duration of engine operations in seconds"},
		{&m.reqDuration, MetricRequestDuration, "Duration of HTTP requests in seconds"},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return nil, fmt.Errorf("creating %s histogram: %w", h.name, err)
		}
		*h.dst = inst
	}
	return m, nil
}

// RecordOperation records one engine operation and its outcome.
func (m *Metrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	op := attribute.String("operation", operation)
	m.operations.Add(ctx, 1, metric.WithAttributes(op, attribute.String("outcome", outcome)))
	m.opDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(op))
}

// RecordError counts an infrastructure failure.
func (m *Metrics) RecordError(ctx context.Context, operation, component string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("component", component),
	))
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	base := []attribute.KeyValue{attribute.String("method", method), attribute.String("route", route)}
	m.requests.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String("status", strconv.Itoa(status)))...))
	m.reqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(base...))
}
