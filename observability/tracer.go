package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer and meter authkit instruments with.
const InstrumentationName = "github.com/kbukum/authkit"

// Span names for engine operations.
const (
	SpanRegister     = "auth.register"
	SpanLogin        = "auth.login"
	SpanVerifyToken  = "auth.verify_token"
	SpanGetUser      = "auth.get_user"
	SpanUpdateUser   = "auth.update_user"
	SpanDeleteUser   = "auth.delete_user"
	SpanLogout       = "auth.logout"
	SpanAuthenticate = "auth.authenticate"
)

// Span attribute keys.
const (
	AttrOperationName = "operation.name"
	AttrUserID        = "user.id"
	AttrDurationMs    = "duration_ms"
	AttrOutcome       = "auth.outcome"
)

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	), nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
