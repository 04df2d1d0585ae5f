package xagecache

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/agecache/pkg/observability/xlog"
	"github.com/omeyang/agecache/pkg/observability/xmetrics"
)

// LoaderOption 定义 Loader 可选配置函数类型。
// 类型参数与 [NewLoader] 一致，例如 WithLoadTimeout[string, string](time.Second)。
type LoaderOption[K comparable, V any] func(*loaderOptions[K, V])

type loaderOptions[K comparable, V any] struct {
	timeout  time.Duration
	attempts uint
	delay    time.Duration
	breaker  *gobreaker.Settings
	keyFunc  func(key K) string
	observer xmetrics.Observer
	logger   xlog.Logger
}

func defaultLoaderOptions[K comparable, V any]() *loaderOptions[K, V] {
	return &loaderOptions[K, V]{attempts: 1}
}

// WithLoadTimeout 为每次回源尝试设置超时，<= 0 表示不设超时。
func WithLoadTimeout[K comparable, V any](d time.Duration) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLoadRetry 设置回源总尝试次数（含首次）和固定重试间隔。
// attempts 为 0 时视为 1，即不重试。
//
// 包装了 ErrNotFound 的错误、回源 panic 和 retry.Unrecoverable 标记的错误不会重试。
func WithLoadRetry[K comparable, V any](attempts uint, delay time.Duration) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		o.attempts = max(attempts, 1)
		o.delay = max(delay, 0)
	}
}

// WithLoadBreaker 在回源外层加熔断器。
//
// 一次 Load 内的全部重试只计为熔断器的一次请求。
// st.IsSuccessful 为 nil 时，nil 与包装了 ErrNotFound 的错误视为成功；
// st.Name 为空时使用缓存名称。熔断打开期间 Load 返回 gobreaker.ErrOpenState。
func WithLoadBreaker[K comparable, V any](st gobreaker.Settings) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		o.breaker = &st
	}
}

// WithKeyFunc 设置合并并发回源时使用的键函数，默认为 fmt.Sprint。
// 不同的 key 必须映射到不同的字符串。nil 会被忽略。
func WithKeyFunc[K comparable, V any](fn func(key K) string) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		if fn != nil {
			o.keyFunc = fn
		}
	}
}

// WithLoaderObserver 设置回源观测器，每次实际回源产生一个 xagecache.load 跨度。
func WithLoaderObserver[K comparable, V any](observer xmetrics.Observer) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		o.observer = observer
	}
}

// WithLoaderLogger 设置日志记录器。回源失败以 Warn 级别记录。
func WithLoaderLogger[K comparable, V any](logger xlog.Logger) LoaderOption[K, V] {
	return func(o *loaderOptions[K, V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}
