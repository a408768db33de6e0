package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScheduleMetrics are recorded by guest tasks.
type ScheduleMetrics struct {
	registrations metric.Int64Counter
	dispatches    metric.Int64Counter
	lookups       metric.Int64Counter
}

func NewScheduleMetrics(meter metric.Meter) (*ScheduleMetrics, error) {
	result := &ScheduleMetrics{}

	var errs error
	var err error

	counter := "schedule.registrations"
	if result.registrations, err = meter.Int64Counter(
		counter,
		metric.WithDescription("the number of schedule registrations sent to the scheduler")); err != nil {
		result.registrations, errs = handleInt64CounterError(counter, err, errs)
	}

	counter = "schedule.dispatches"
	if result.dispatches, err = meter.Int64Counter(
		counter,
		metric.WithDescription("the number of triggered invocations handed to a handler")); err != nil {
		result.dispatches, errs = handleInt64CounterError(counter, err, errs)
	}

	counter = "schedule.lookups"
	if result.lookups, err = meter.Int64Counter(
		counter,
		metric.WithDescription("the number of event lookups made against the scheduler")); err != nil {
		result.lookups, errs = handleInt64CounterError(counter, err, errs)
	}

	return result, errs
}

func (m *ScheduleMetrics) Registered(ctx context.Context, owner, task string, succeeded bool) {
	m.registrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(OwnerAttribute, owner),
		attribute.String(TaskAttribute, task),
		attribute.String(OutcomeStatusNameAttribute, SuccessOrFailureStatus(succeeded)),
	))
}

func (m *ScheduleMetrics) Dispatched(ctx context.Context, handler string, succeeded bool) {
	m.dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String(HandlerAttribute, handler),
		attribute.String(OutcomeStatusNameAttribute, SuccessOrFailureStatus(succeeded)),
	))
}

func (m *ScheduleMetrics) LookedUp(ctx context.Context, found bool) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(OutcomeStatusNameAttribute, SuccessOrFailureStatus(found)),
	))
}
