package xagecache

import "sync/atomic"

// Entry 是单个槽位的只读快照。
//
// Occupied 为 false 时 Key/Value 为零值，没有意义，调用方不应读取。
type Entry[K comparable, V any] struct {
	// Key 槽位中的键。
	Key K

	// Value 槽位中的值。
	Value V

	// Age 槽位年龄。每次缓存访问 +1，写入或触达时归零。
	Age uint64

	// Occupied 槽位是否存放着有效条目。
	Occupied bool
}

// slot 是槽位表中的一个固定位置。
//
// key/value/occupied 只能在持有写锁时修改；age 使用原子变量，
// 因为 Values 在读锁下也会将其归零。
type slot[K comparable, V any] struct {
	key      K
	value    V
	age      atomic.Uint64
	occupied bool
}

// fill 写入新条目并将年龄归零。调用方必须持有写锁。
func (s *slot[K, V]) fill(key K, value V) {
	s.key = key
	s.value = value
	s.occupied = true
	s.age.Store(0)
}

// clear 将槽位标记为空闲并清掉引用，便于 GC 回收旧值。调用方必须持有写锁。
func (s *slot[K, V]) clear() {
	var (
		zeroK K
		zeroV V
	)
	s.key = zeroK
	s.value = zeroV
	s.occupied = false
	s.age.Store(0)
}

// matches 判断槽位是否为 key 的有效条目。
func (s *slot[K, V]) matches(key K) bool {
	return s.occupied && s.key == key
}

// snapshot 返回槽位的快照。调用方必须至少持有读锁。
func (s *slot[K, V]) snapshot() Entry[K, V] {
	return Entry[K, V]{
		Key:      s.key,
		Value:    s.value,
		Age:      s.age.Load(),
		Occupied: s.occupied,
	}
}
