package observability

import (
	"context"
	"database/sql"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedGoalStore wraps a store.GoalStore with trace spans, operation
// latency histograms and error counters for every method call.
type InstrumentedGoalStore struct {
	inner    store.GoalStore
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ store.GoalStore = (*InstrumentedGoalStore)(nil)

// NewInstrumentedGoalStore creates the wrapper.
func NewInstrumentedGoalStore(inner store.GoalStore, p *Provider) (*InstrumentedGoalStore, error) {
	meter := p.Meter()

	duration, err := meter.Float64Histogram(
		"goalbreaker.store.operation.duration",
		metric.WithDescription("Duration of goal store operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"goalbreaker.store.operation.errors",
		metric.WithDescription("Number of goal store operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGoalStore{
		inner:    inner,
		tracer:   p.Tracer(),
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedGoalStore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "store."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("store.operation", operation),
		}, attrs...)...),
	)
}

func (s *InstrumentedGoalStore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (s *InstrumentedGoalStore) Create(ctx context.Context, goal *domain.Goal) error {
	ctx, span := s.startSpan(ctx, "Create")
	start := time.Now()
	err := s.inner.Create(ctx, goal)
	if err == nil {
		span.SetAttributes(attribute.Int64("goal.id", goal.ID))
	}
	s.record(ctx, span, "Create", start, err)
	return err
}

func (s *InstrumentedGoalStore) GetByID(ctx context.Context, id int64) (*domain.Goal, error) {
	ctx, span := s.startSpan(ctx, "GetByID", attribute.Int64("goal.id", id))
	start := time.Now()
	result, err := s.inner.GetByID(ctx, id)
	s.record(ctx, span, "GetByID", start, err)
	return result, err
}

func (s *InstrumentedGoalStore) List(ctx context.Context) ([]*domain.Goal, error) {
	ctx, span := s.startSpan(ctx, "List")
	start := time.Now()
	result, err := s.inner.List(ctx)
	span.SetAttributes(attribute.Int("goal.count", len(result)))
	s.record(ctx, span, "List", start, err)
	return result, err
}

func (s *InstrumentedGoalStore) Update(ctx context.Context, goal *domain.Goal) error {
	ctx, span := s.startSpan(ctx, "Update", attribute.Int64("goal.id", goal.ID))
	start := time.Now()
	err := s.inner.Update(ctx, goal)
	s.record(ctx, span, "Update", start, err)
	return err
}

func (s *InstrumentedGoalStore) Delete(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "Delete", attribute.Int64("goal.id", id))
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.record(ctx, span, "Delete", start, err)
	return err
}

func (s *InstrumentedGoalStore) DeleteAll(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "DeleteAll")
	start := time.Now()
	n, err := s.inner.DeleteAll(ctx)
	span.SetAttributes(attribute.Int64("goal.count", n))
	s.record(ctx, span, "DeleteAll", start, err)
	return n, err
}

func (s *InstrumentedGoalStore) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

// WithTx returns an instrumented store bound to tx.
func (s *InstrumentedGoalStore) WithTx(tx *sql.Tx) store.GoalStore {
	return &InstrumentedGoalStore{
		inner:    s.inner.WithTx(tx),
		tracer:   s.tracer,
		duration: s.duration,
		errors:   s.errors,
	}
}
