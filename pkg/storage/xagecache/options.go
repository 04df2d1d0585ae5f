package xagecache

import (
	"github.com/omeyang/agecache/pkg/observability/xlog"
)

const (
	// DefaultCapacity 默认槽位数。
	DefaultCapacity = 32

	// minCapacity 最小槽位数，低于此值时使用 DefaultCapacity。
	minCapacity = DefaultCapacity / 2

	// maxCapacity 槽位数上限 (16,777,216)，超过时静默截断。
	maxCapacity = 1 << 24

	// defaultName 未设置名称时使用的缓存名称。
	defaultName = "default"
)

// Option 定义缓存可选配置函数类型。
// 类型参数与 [New] 一致，回调类型不匹配时编译失败。
type Option[K comparable, V any] func(*options[K, V])

// options 内部可选配置。
type options[K comparable, V any] struct {
	name      string
	logger    xlog.Logger
	onEvicted func(key K, value V)
}

func defaultOptions[K comparable, V any]() *options[K, V] {
	return &options[K, V]{name: defaultName}
}

// WithName 设置缓存名称，用于日志、指标和 Registry。
// 空字符串会被忽略。
func WithName[K comparable, V any](name string) Option[K, V] {
	return func(o *options[K, V]) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志记录器。淘汰事件以 Debug 级别记录。
// nil 会被忽略。
func WithLogger[K comparable, V any](logger xlog.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOnEvicted 设置 Add 淘汰条目时的回调函数。
//
// 回调在释放表锁之后同步执行，可以在回调中调用 Cache 的方法。
// Remove 和 Reset 不会触发回调，它们不是淘汰。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		if fn != nil {
			o.onEvicted = fn
		}
	}
}

// normalizeCapacity 将请求容量规整为实际槽位数。
// 上限与 xlru 的 maxSize 相同，避免一次性分配过大的槽位表。
func normalizeCapacity(capacity int) int {
	switch {
	case capacity < minCapacity:
		return DefaultCapacity
	case capacity > maxCapacity:
		return maxCapacity
	default:
		return capacity
	}
}
