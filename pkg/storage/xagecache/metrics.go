package xagecache

import "github.com/omeyang/agecache/pkg/observability/xmetrics"

// RegisterMetrics 将 src 的统计信息登记为 OpenTelemetry 可观测指标，
// 指标名称见 xmetrics 包文档，数据点带有属性 cache=<Stats().Name>。
//
// 采集时调用 src.Stats()，不触发缓存老化。
func RegisterMetrics(src StatsSource, opts ...xmetrics.Option) (xmetrics.Registration, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	return xmetrics.RegisterCache(src.Stats().Name, func() xmetrics.CacheSnapshot {
		s := src.Stats()
		return xmetrics.CacheSnapshot{
			Hits:      s.Hits,
			Misses:    s.Misses,
			Adds:      s.Adds,
			Evictions: s.Evictions,
			Entries:   s.Len,
			Capacity:  s.Capacity,
		}
	}, opts...)
}
