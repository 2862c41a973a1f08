package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	cycleCounter  metric.Int64Counter
	fetchDuration metric.Float64Histogram

	// cacheAgeFn holds a func() int sampled by the gauge callback.
	cacheAgeFn atomic.Value
)

func initInstruments(meter metric.Meter) error {
	var err error
	cycleCounter, err = meter.Int64Counter(
		"relay.refresh.cycles",
		metric.WithDescription("Refresh cycles, by outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return err
	}

	fetchDuration, err = meter.Float64Histogram(
		"relay.feed.fetch.duration",
		metric.WithDescription("Upstream feed fetch duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge(
		"relay.cache.age",
		metric.WithDescription("Age of the cached snapshot"),
		metric.WithUnit("s"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if fn, ok := cacheAgeFn.Load().(func() int); ok {
				o.Observe(int64(fn()))
			}
			return nil
		}),
	)
	return err
}

// RecordCycle counts one refresh cycle. No-op until metrics are
// initialized.
func RecordCycle(ctx context.Context, ok bool) {
	if cycleCounter == nil {
		return
	}
	cycleCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}

// RecordFetchDuration records one upstream feed fetch.
func RecordFetchDuration(ctx context.Context, d time.Duration, ok bool) {
	if fetchDuration == nil {
		return
	}
	fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("success", ok)))
}

// RegisterCacheAge installs the sampler behind the cache-age gauge.
func RegisterCacheAge(fn func() int) {
	cacheAgeFn.Store(fn)
}
