package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation outcomes. Rejected covers client-caused failures (bad input,
// wrong password, invalid token); Error covers infrastructure failures.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Operation tracks one traced and metered unit of work.
type Operation struct {
	Name      string
	StartTime time.Time

	span    trace.Span
	metrics *Metrics
}

// StartOperation opens a span named name on tracer and starts the clock.
// A nil tracer falls back to the global authkit tracer; nil metrics are
// skipped.
func StartOperation(ctx context.Context, tracer trace.Tracer, metrics *Metrics, name string) (context.Context, *Operation) {
	if tracer == nil {
		tracer = Tracer(InstrumentationName)
	}
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attribute.String(AttrOperationName, name))
	return ctx, &Operation{
		Name:      name,
		StartTime: time.Now(),
		span:      span,
		metrics:   metrics,
	}
}

// SetUserID tags the span with the subject of the operation.
func (op *Operation) SetUserID(id string) {
	if id != "" {
		op.span.SetAttributes(attribute.String(AttrUserID, id))
	}
}

// End closes the span and records the outcome. err is only recorded on the
// span for OutcomeError.
func (op *Operation) End(ctx context.Context, outcome string, err error) {
	duration := op.Duration()

	if outcome == OutcomeError && err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.metrics.RecordError(ctx, op.Name, "auth")
	}
	op.span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	op.metrics.RecordOperation(ctx, op.Name, outcome, duration)
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
