package xagecache

import (
	"context"
	"sync"

	"github.com/omeyang/agecache/pkg/observability/xlog"
)

// Cache 是固定容量、按年龄淘汰的并发安全缓存。
// 必须通过 [New] 创建，零值不可用。
//
// 每个操作（Reset 除外）先在写锁下老化整张表，释放锁后再进入操作阶段。
// 两个临界区之间没有任何保证，例如 Get 可能观察到老化之后穿插进来的写入。
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	slots []slot[K, V]

	name      string
	logger    xlog.Logger
	onEvicted func(key K, value V)
	stats     counters
}

// New 创建缓存。
//
// capacity 小于 16 时使用 DefaultCapacity (32)。
// 槽位表在构造时一次性分配，因此容量上限为 16,777,216，超过时静默截断为上限，
// 调用方可用 [Cache.Capacity] 读取实际槽位数。
// 所有槽位在构造时均为空闲。New 永远不会失败。
//
// 选项的类型参数需与缓存一致，例如 WithName[string, int]("users")，
// WithOnEvicted 可从回调签名推断类型参数。
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	o := defaultOptions[K, V]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return &Cache[K, V]{
		slots:     make([]slot[K, V], normalizeCapacity(capacity)),
		name:      o.name,
		logger:    o.logger,
		onEvicted: o.onEvicted,
	}
}

// Name 返回缓存名称。
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Capacity 返回槽位数，在对象生命周期内不变。不触发老化。
func (c *Cache[K, V]) Capacity() int {
	return len(c.slots)
}

// Add 写入一个条目。
//
// 按槽位顺序选择第一个空闲槽位；没有空闲槽位时淘汰年龄最大的条目。
// 写入后槽位年龄归零。不检查重复键：已存在的同名键不会被覆盖，
// 新条目占用另一个槽位。
func (c *Cache[K, V]) Add(key K, value V) {
	idx, victim := c.store(key, value)
	c.evicted(idx, victim)
}

// Get 返回第一个匹配槽位的值。
// 没有匹配时返回零值和 ErrNotFound。
func (c *Cache[K, V]) Get(key K) (V, error) {
	c.age()

	c.mu.RLock()
	idx := c.indexLocked(key)
	if idx < 0 {
		c.mu.RUnlock()
		c.stats.misses.Add(1)
		var zero V
		return zero, ErrNotFound
	}
	value := c.slots[idx].value
	c.mu.RUnlock()

	c.stats.hits.Add(1)
	return value, nil
}

// Set 覆盖第一个匹配槽位的值并将其年龄归零。
// 键不存在时为空操作，不会插入。
func (c *Cache[K, V]) Set(key K, value V) {
	c.age()

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexLocked(key); idx >= 0 {
		c.slots[idx].value = value
		c.slots[idx].age.Store(0)
	}
}

// Remove 将第一个匹配槽位标记为空闲。键不存在时为空操作。
// 只移除一个槽位：如果存在重复键，后续槽位中的同名键会成为新的第一个匹配。
func (c *Cache[K, V]) Remove(key K) {
	c.age()

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexLocked(key); idx >= 0 {
		c.slots[idx].clear()
	}
}

// Contains 检查是否存在匹配的已占用槽位。
func (c *Cache[K, V]) Contains(key K) bool {
	c.age()

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.indexLocked(key) >= 0
}

// Values 按槽位顺序返回所有已占用槽位的值。
//
// 副作用：每个被访问的槽位年龄归零，即所有存活条目都被触达。
// 返回的切片由调用方持有。
func (c *Cache[K, V]) Values() []V {
	c.age()

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]V, 0, len(c.slots))
	for i := range c.slots {
		s := &c.slots[i]
		if !s.occupied {
			continue
		}
		out = append(out, s.value)
		s.age.Store(0)
	}
	return out
}

// Reset 将所有槽位标记为空闲并将年龄归零。
// Reset 不触发老化，之后的状态与新建的同容量缓存一致（统计计数除外）。
func (c *Cache[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.slots {
		c.slots[i].clear()
	}
}

// Len 返回已占用槽位数。不触发老化。
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lenLocked()
}

// Entries 按槽位顺序返回全部槽位（含空闲槽位）的快照。不触发老化。
// 用于诊断和测试观察年龄分布。
func (c *Cache[K, V]) Entries() []Entry[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry[K, V], len(c.slots))
	for i := range c.slots {
		out[i] = c.slots[i].snapshot()
	}
	return out
}

// =============================================================================
// 内部实现
// =============================================================================

// age 在独立的写锁临界区内将所有槽位（无论是否占用）年龄 +1。
func (c *Cache[K, V]) age() {
	c.mu.Lock()
	for i := range c.slots {
		c.slots[i].age.Add(1)
	}
	c.mu.Unlock()
}

// indexLocked 返回第一个匹配 key 的已占用槽位下标，不存在时返回 -1。
func (c *Cache[K, V]) indexLocked(key K) int {
	for i := range c.slots {
		if c.slots[i].matches(key) {
			return i
		}
	}
	return -1
}

// freeSlotLocked 返回第一个空闲槽位下标，表满时返回 -1。
func (c *Cache[K, V]) freeSlotLocked() int {
	for i := range c.slots {
		if !c.slots[i].occupied {
			return i
		}
	}
	return -1
}

func (c *Cache[K, V]) lenLocked() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].occupied {
			n++
		}
	}
	return n
}

// store 执行 Add 的老化和写入阶段，返回写入的槽位和被淘汰的条目。
// 淘汰事件由调用方在释放所有锁之后交给 evicted 处理。
func (c *Cache[K, V]) store(key K, value V) (int, Entry[K, V]) {
	c.age()

	c.mu.Lock()
	idx := c.freeSlotLocked()
	var victim Entry[K, V]
	if idx < 0 {
		idx = c.page()
		victim = c.slots[idx].snapshot()
	}
	c.slots[idx].fill(key, value)
	c.mu.Unlock()

	c.stats.adds.Add(1)
	return idx, victim
}

// evicted 在锁外处理淘汰事件：计数、记录日志并调用回调。
// victim 未占用时什么也不做。
func (c *Cache[K, V]) evicted(idx int, victim Entry[K, V]) {
	if !victim.Occupied {
		return
	}
	c.stats.evictions.Add(1)
	if c.logger != nil {
		c.logger.Debug(context.Background(), "xagecache: entry evicted",
			xlog.Component(c.name),
			xlog.Slot(idx),
			xlog.Age(victim.Age))
	}
	if c.onEvicted != nil {
		c.onEvicted(victim.Key, victim.Value)
	}
}
