package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SchedulerMetrics are recorded by the scheduler service.
type SchedulerMetrics struct {
	listenRequests metric.Int64Counter
	eventRequests  metric.Int64Counter
}

func NewSchedulerMetrics(meter metric.Meter) (*SchedulerMetrics, error) {
	result := &SchedulerMetrics{}

	var errs error
	var err error

	counter := "scheduler.listen.requests"
	if result.listenRequests, err = meter.Int64Counter(
		counter,
		metric.WithDescription("the number of schedule registration requests received")); err != nil {
		result.listenRequests, errs = handleInt64CounterError(counter, err, errs)
	}

	counter = "scheduler.event.requests"
	if result.eventRequests, err = meter.Int64Counter(
		counter,
		metric.WithDescription("the number of event lookups received")); err != nil {
		result.eventRequests, errs = handleInt64CounterError(counter, err, errs)
	}

	return result, errs
}

func (m *SchedulerMetrics) Listen(ctx context.Context, status int) {
	m.listenRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.Int(HTTPStatusAttribute, status),
	))
}

func (m *SchedulerMetrics) Event(ctx context.Context, status int) {
	m.eventRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.Int(HTTPStatusAttribute, status),
	))
}
