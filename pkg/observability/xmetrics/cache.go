package xmetrics

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits      = "agecache.cache.hits"
	metricCacheMisses    = "agecache.cache.misses"
	metricCacheAdds      = "agecache.cache.adds"
	metricCacheEvictions = "agecache.cache.evictions"
	metricCacheEntries   = "agecache.cache.entries"
	metricCacheCapacity  = "agecache.cache.capacity"
)

// CacheSnapshot 缓存统计在某一时刻的取值。
type CacheSnapshot struct {
	Hits      uint64
	Misses    uint64
	Adds      uint64
	Evictions uint64
	Entries   int
	Capacity  int
}

// SnapshotFunc 在每次指标采集时被调用。
// 必须并发安全且快速返回，不应阻塞。
type SnapshotFunc func() CacheSnapshot

// Registration 表示一次 RegisterCache 登记，调用 Unregister 停止上报。
type Registration interface {
	Unregister() error
}

// RegisterCache 将缓存统计以 Observable 仪表的形式登记到 MeterProvider。
// 所有数据点带有属性 cache=<name>。
func RegisterCache(name string, snapshot SnapshotFunc, opts ...Option) (Registration, error) {
	if snapshot == nil {
		return nil, ErrNilSnapshot
	}
	cfg := newOTelConfig(opts)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	counters := make(map[string]metric.Int64ObservableCounter, 4)
	for _, n := range []string{metricCacheHits, metricCacheMisses, metricCacheAdds, metricCacheEvictions} {
		c, err := meter.Int64ObservableCounter(n, metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, n, err)
		}
		counters[n] = c
	}

	entries, err := meter.Int64ObservableGauge(metricCacheEntries,
		metric.WithDescription("occupied slots"), metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricCacheEntries, err)
	}
	capacity, err := meter.Int64ObservableGauge(metricCacheCapacity,
		metric.WithDescription("total slots"), metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricCacheCapacity, err)
	}

	set := metric.WithAttributes(attribute.String("cache", name))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := snapshot()
		o.ObserveInt64(counters[metricCacheHits], clampInt64(s.Hits), set)
		o.ObserveInt64(counters[metricCacheMisses], clampInt64(s.Misses), set)
		o.ObserveInt64(counters[metricCacheAdds], clampInt64(s.Adds), set)
		o.ObserveInt64(counters[metricCacheEvictions], clampInt64(s.Evictions), set)
		o.ObserveInt64(entries, int64(s.Entries), set)
		o.ObserveInt64(capacity, int64(s.Capacity), set)
		return nil
	},
		counters[metricCacheHits], counters[metricCacheMisses],
		counters[metricCacheAdds], counters[metricCacheEvictions],
		entries, capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: register callback: %w", ErrCreateInstrument, err)
	}
	return reg, nil
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
