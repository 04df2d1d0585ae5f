package xagecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/agecache/pkg/observability/xlog"
	"github.com/omeyang/agecache/pkg/observability/xmetrics"
)

// componentName 日志和观测中使用的组件名。
const componentName = "xagecache"

// LoadFunc 从数据源读取 key 对应的值。
// 数据源中不存在该键时应返回包装了 ErrNotFound 的错误。
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Loader 在 Cache 之上实现旁路缓存（cache-aside）：
// 命中直接返回，未命中时回源并写回缓存。
//
// 同一 key 的并发未命中经 singleflight 合并为一次回源。
// 回源在脱离调用方取消信号的 context 中执行，调用方取消只影响自身的等待，
// 回源结果仍会写入缓存供后续调用使用。
//
// 每个回源中的键维护一个代数，Invalidate 使代数加一；
// 回源结束时代数已变化的结果只返回给等待者，不写入缓存。
type Loader[K comparable, V any] struct {
	cache    *Cache[K, V]
	load     LoadFunc[K, V]
	group    singleflight.Group
	mu       sync.Mutex
	flights  map[string]*flight
	keyFunc  func(K) string
	timeout  time.Duration
	attempts uint
	delay    time.Duration
	breaker  *gobreaker.CircuitBreaker[V]
	observer xmetrics.Observer
	logger   xlog.Logger

	loads    atomic.Uint64
	shared   atomic.Uint64
	failures atomic.Uint64
}

// LoaderStats Loader 统计信息快照。
type LoaderStats struct {
	// Loads 实际回源次数（合并后）。
	Loads uint64

	// Shared 复用了其他调用回源结果的次数。
	Shared uint64

	// Failures 回源失败次数，不含 ErrNotFound。
	Failures uint64
}

// flight 记录同一键上进行中的回源。
type flight struct {
	gen     uint64 // Invalidate 次数
	pending int    // 进行中的 fetch 数，归零时删除
}

// NewLoader 创建 Loader。
func NewLoader[K comparable, V any](cache *Cache[K, V], load LoadFunc[K, V], opts ...LoaderOption[K, V]) (*Loader[K, V], error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if load == nil {
		return nil, ErrNilLoadFunc
	}

	o := defaultLoaderOptions[K, V]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	l := &Loader[K, V]{
		cache:    cache,
		load:     load,
		flights:  make(map[string]*flight),
		keyFunc:  func(key K) string { return fmt.Sprint(key) },
		timeout:  o.timeout,
		attempts: o.attempts,
		delay:    o.delay,
		observer: o.observer,
		logger:   o.logger,
	}
	if o.keyFunc != nil {
		l.keyFunc = o.keyFunc
	}
	if o.breaker != nil {
		st := *o.breaker
		if st.Name == "" {
			st.Name = cache.Name()
		}
		if st.IsSuccessful == nil {
			st.IsSuccessful = func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			}
		}
		l.breaker = gobreaker.NewCircuitBreaker[V](st)
	}
	return l, nil
}

// Cache 返回底层缓存。
func (l *Loader[K, V]) Cache() *Cache[K, V] {
	return l.cache
}

// Load 返回 key 对应的值，未命中时回源。
//
// 回源成功后，如果缓存中仍不存在该键则以 Add 写入。
// 检查与写入只在 Loader 内部串行，绕过 Loader 直接 Add 同一键的调用方仍可能产生重复键。
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	if v, err := l.cache.Get(key); err == nil {
		return v, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	detached := context.WithoutCancel(ctx)
	fk := l.keyFunc(key)
	ch := l.group.DoChan(fk, func() (any, error) {
		return l.fetch(detached, fk, key)
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case r := <-ch:
		if r.Shared {
			l.shared.Add(1)
		}
		if r.Err != nil {
			var zero V
			return zero, r.Err
		}
		v, _ := r.Val.(V)
		return v, nil
	}
}

// Invalidate 从缓存移除 key 并丢弃进行中的合并回源，
// 之后的 Load 会发起新的回源。
//
// Invalidate 之前已开始的回源仍把结果返回给它的等待者，但不再写入缓存。
func (l *Loader[K, V]) Invalidate(key K) {
	fk := l.keyFunc(key)
	l.mu.Lock()
	if f, ok := l.flights[fk]; ok {
		f.gen++
	}
	l.mu.Unlock()

	l.group.Forget(fk)
	l.cache.Remove(key)
}

// Stats 返回统计信息快照。
func (l *Loader[K, V]) Stats() LoaderStats {
	return LoaderStats{
		Loads:    l.loads.Load(),
		Shared:   l.shared.Load(),
		Failures: l.failures.Load(),
	}
}

// =============================================================================
// 内部实现
// =============================================================================

// fetch 执行一次合并后的回源并写回缓存。
func (l *Loader[K, V]) fetch(ctx context.Context, fk string, key K) (V, error) {
	l.loads.Add(1)
	f, gen := l.begin(fk)
	defer l.finish(fk, f)

	start := time.Now()

	ctx, span := xmetrics.Start(ctx, l.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "load",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("cache", l.cache.Name())},
	})

	v, err := l.execute(ctx, key)
	span.End(xmetrics.Result{Err: err})

	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.failures.Add(1)
			if l.logger != nil {
				l.logger.Warn(ctx, "xagecache: load failed",
					xlog.Component(l.cache.Name()),
					xlog.Operation("load"),
					xlog.Duration(time.Since(start)),
					xlog.Err(err))
			}
		}
		var zero V
		return zero, err
	}

	l.storeIfCurrent(f, gen, key, v)
	return v, nil
}

// begin 登记一次回源，返回该键的 flight 和开始时的代数。
func (l *Loader[K, V]) begin(fk string) (*flight, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.flights[fk]
	if !ok {
		f = &flight{}
		l.flights[fk] = f
	}
	f.pending++
	return f, f.gen
}

func (l *Loader[K, V]) finish(fk string, f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f.pending--
	if f.pending == 0 {
		delete(l.flights, fk)
	}
}

// storeIfCurrent 在代数未变化且缓存中不存在该键时写入。
// 检查与写入在 l.mu 内完成，Invalidate 的代数递增不会落在两者之间；
// 淘汰回调在释放 l.mu 之后执行。
func (l *Loader[K, V]) storeIfCurrent(f *flight, gen uint64, key K, v V) {
	l.mu.Lock()
	if f.gen != gen || l.cache.Contains(key) {
		l.mu.Unlock()
		return
	}
	idx, victim := l.cache.store(key, v)
	l.mu.Unlock()

	l.cache.evicted(idx, victim)
}

// execute 按 熔断 -> 重试 -> 单次尝试 的顺序组合回源策略。
func (l *Loader[K, V]) execute(ctx context.Context, key K) (V, error) {
	call := func() (V, error) {
		return l.attempt(ctx, key)
	}

	if l.attempts > 1 {
		once := call
		call = func() (V, error) {
			return retry.NewWithData[V](
				retry.Context(ctx),
				retry.Attempts(l.attempts),
				retry.Delay(l.delay),
				retry.DelayType(retry.FixedDelay),
				retry.LastErrorOnly(true),
				retry.RetryIf(retryable),
			).Do(once)
		}
	}

	if l.breaker != nil {
		return l.breaker.Execute(call)
	}
	return call()
}

// attempt 执行一次回源尝试，回源函数的 panic 转为 ErrLoadPanic。
func (l *Loader[K, V]) attempt(ctx context.Context, key K) (v V, err error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			var zero V
			v, err = zero, fmt.Errorf("%w: %v", ErrLoadPanic, r)
		}
	}()
	return l.load(ctx, key)
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrLoadPanic) {
		return false
	}
	return retry.IsRecoverable(err)
}
