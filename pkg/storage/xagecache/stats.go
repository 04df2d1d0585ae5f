package xagecache

import "sync/atomic"

// Stats 缓存统计信息快照。
type Stats struct {
	// Name 缓存名称。
	Name string

	// Capacity 槽位数。
	Capacity int

	// Len 已占用槽位数。
	Len int

	// Hits Get 命中次数。
	Hits uint64

	// Misses Get 未命中次数。
	Misses uint64

	// Adds Add 调用次数。
	Adds uint64

	// Evictions Add 触发淘汰的次数。
	Evictions uint64
}

// HitRatio 返回命中率 (0.0 - 1.0)，没有 Get 调用时返回 0。
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// counters 原子统计计数器。在锁外更新，与槽位表状态之间没有一致性保证。
type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	adds      atomic.Uint64
	evictions atomic.Uint64
}

// Stats 返回统计信息快照。不触发老化。
// Reset 不清零统计计数。
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Name:      c.name,
		Capacity:  len(c.slots),
		Len:       c.Len(),
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Adds:      c.stats.adds.Load(),
		Evictions: c.stats.evictions.Load(),
	}
}
