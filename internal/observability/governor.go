package observability

import (
	"context"

	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// UsageSource reports rate limiter usage. *generation.Governor implements it.
type UsageSource interface {
	Usage() generation.Usage
}

// RegisterGovernorMetrics publishes the governor windows as observable
// gauges, read at collection time. The returned registration can be
// unregistered on shutdown.
func RegisterGovernorMetrics(p *Provider, src UsageSource) (metric.Registration, error) {
	meter := p.Meter()

	used, err := meter.Int64ObservableGauge(
		"goalbreaker.ratelimit.used",
		metric.WithDescription("Successful upstream calls inside each rate limit window"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	limit, err := meter.Int64ObservableGauge(
		"goalbreaker.ratelimit.limit",
		metric.WithDescription("Configured capacity of each rate limit window"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	minute := metric.WithAttributes(attribute.String("window", "minute"))
	day := metric.WithAttributes(attribute.String("window", "day"))

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		u := src.Usage()
		o.ObserveInt64(used, int64(u.RequestsThisMinute), minute)
		o.ObserveInt64(used, int64(u.RequestsToday), day)
		o.ObserveInt64(limit, int64(u.MaxPerMinute), minute)
		o.ObserveInt64(limit, int64(u.MaxPerDay), day)
		return nil
	}, used, limit)
}
