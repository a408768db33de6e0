package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/DarumaDocker/schedule-flows"

var (
	Schedule  *ScheduleMetrics
	Scheduler *SchedulerMetrics
)

func init() {
	var errs error
	var err error

	meter := otel.Meter(meterName)
	Schedule, err = NewScheduleMetrics(meter)
	errs = errors.Join(errs, err)
	Scheduler, err = NewSchedulerMetrics(meter)
	errs = errors.Join(errs, err)

	if errs != nil {
		panic(fmt.Errorf("could not initialize metrics: %w", errs))
	}
}

//nolint:unparam
func handleInt64CounterError(counter string, err error, errs error) (metric.Int64Counter, error) {
	return noop.Int64Counter{}, errors.Join(errs, fmt.Errorf("%q counter init failed; falling back to noop: %w", counter, err))
}
