package observability

import (
	"context"
	"errors"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Outcome labels for breakdown and completion metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeLocalLimit   = "local_rate_limit"
	OutcomeCancelled    = "cancelled"
	OutcomeInvalidInput = "invalid_input"
	OutcomeExhausted    = "exhausted"
)

// BreakdownOutcome labels the result of a whole breakdown request.
func BreakdownOutcome(err error) string {
	var (
		rl       *generation.RateLimitError
		upstream *generation.UpstreamError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &rl):
		return OutcomeLocalLimit
	case errors.As(err, &upstream):
		return upstream.Kind.String()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, generation.ErrEmptyGoal):
		return OutcomeInvalidInput
	default:
		return OutcomeExhausted
	}
}

// ModelResolver maps a requested model id onto the id actually used.
type ModelResolver interface {
	Resolve(id string) string
}

// InstrumentedGenerator wraps a generation.Generator with a span, a request
// counter and a latency histogram per breakdown. Metrics are labelled with the
// resolved model so callers cannot grow label cardinality with arbitrary ids.
type InstrumentedGenerator struct {
	inner    generation.Generator
	models   ModelResolver
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ generation.Generator = (*InstrumentedGenerator)(nil)

// NewInstrumentedGenerator creates the wrapper.
func NewInstrumentedGenerator(inner generation.Generator, models ModelResolver, p *Provider) (*InstrumentedGenerator, error) {
	meter := p.Meter()

	requests, err := meter.Int64Counter(
		"goalbreaker.breakdown.requests",
		metric.WithDescription("Breakdown requests by model and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"goalbreaker.breakdown.duration",
		metric.WithDescription("Duration of breakdown requests including retries, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGenerator{
		inner:    inner,
		models:   models,
		tracer:   p.Tracer(),
		requests: requests,
		duration: duration,
	}, nil
}

// BreakDown implements generation.Generator.
func (g *InstrumentedGenerator) BreakDown(ctx context.Context, goalText, modelID string) (*generation.Breakdown, error) {
	model := g.models.Resolve(modelID)
	ctx, span := g.tracer.Start(ctx, "generation.BreakDown",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("goal.length", len(goalText)),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := g.inner.BreakDown(ctx, goalText, modelID)
	outcome := BreakdownOutcome(err)

	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	g.requests.Add(ctx, 1, attrs)
	g.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(attribute.Int("goal.complexity_score", result.ComplexityScore))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// InstrumentedCompleter wraps a generation.Completer so that every upstream
// attempt gets its own span and is counted by model and error kind.
type InstrumentedCompleter struct {
	inner    generation.Completer
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

var _ generation.Completer = (*InstrumentedCompleter)(nil)

// NewInstrumentedCompleter creates the wrapper.
func NewInstrumentedCompleter(inner generation.Completer, p *Provider) (*InstrumentedCompleter, error) {
	meter := p.Meter()

	calls, err := meter.Int64Counter(
		"goalbreaker.llm.calls",
		metric.WithDescription("Upstream model calls by model and result kind"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"goalbreaker.llm.duration",
		metric.WithDescription("Duration of single upstream model calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedCompleter{
		inner:    inner,
		tracer:   p.Tracer(),
		calls:    calls,
		duration: duration,
	}, nil
}

// Complete implements generation.Completer.
func (c *InstrumentedCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("llm.model", model)),
	)
	defer span.End()

	start := time.Now()
	text, err := c.inner.Complete(ctx, model, prompt)

	kind := OutcomeSuccess
	if err != nil {
		kind = generation.Classify(err.Error()).Kind.String()
	}
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("result", kind),
	)
	c.calls.Add(ctx, 1, attrs)
	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return "", err
	}
	span.SetStatus(codes.Ok, "")
	return text, nil
}
