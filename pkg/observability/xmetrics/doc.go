// Package xmetrics 提供缓存及其回源路径的可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// 业务代码只依赖 Observer/Span 最小接口，默认实现基于 OpenTelemetry。
// 缓存自身的热路径不打点，命中/未命中/淘汰等计数通过 [RegisterCache]
// 以 Observable 仪表的方式在采集时拉取。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xagecache",
//		Operation: "load",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
// 操作指标：
//   - agecache.operation.total
//   - agecache.operation.duration
//
// 缓存指标（属性 cache=<name>）：
//   - agecache.cache.hits / misses / adds / evictions（Counter）
//   - agecache.cache.entries / capacity（Gauge）
package xmetrics
