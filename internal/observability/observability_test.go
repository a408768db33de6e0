package observability

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	assert.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			assert.True(t, ok, "%s is not an int64 sum", m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestScheduleMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	m, err := NewScheduleMetrics(meter)
	assert.NoError(t, err)
	m.Registered(ctx, "acme", "t1", true)
	m.Registered(ctx, "acme", "t1", false)
	m.Dispatched(ctx, "__schedule__on_triggered", true)
	m.LookedUp(ctx, false)

	assert.Equal(t, map[string]int64{
		"schedule.registrations": 2,
		"schedule.dispatches":    1,
		"schedule.lookups":       1,
	}, collect(t, reader))
}

func TestSchedulerMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	m, err := NewSchedulerMetrics(meter)
	assert.NoError(t, err)
	m.Listen(ctx, 200)
	m.Listen(ctx, 429)
	m.Event(ctx, 404)

	assert.Equal(t, map[string]int64{
		"scheduler.listen.requests": 2,
		"scheduler.event.requests":  1,
	}, collect(t, reader))
}

func TestSuccessOrFailureStatus(t *testing.T) {
	assert.Equal(t, SuccessStatus, SuccessOrFailureStatus(true))
	assert.Equal(t, FailureStatus, SuccessOrFailureStatus(false))
}
