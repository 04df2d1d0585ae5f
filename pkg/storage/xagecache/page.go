package xagecache

// page 选择淘汰槽位：年龄严格最大者胜出，同龄时取下标最小者。
//
// 只由 Add 在没有空闲槽位时调用，调用方必须持有写锁。
// 容量至少为 minCapacity，因此总能返回有效下标。
//
// 年龄是全局递增的粗粒度计数器，最大年龄近似于最久未使用。
// 选择是确定性的，不做随机化。
func (c *Cache[K, V]) page() int {
	victim := 0
	oldest := c.slots[0].age.Load()
	for i := 1; i < len(c.slots); i++ {
		// 只有严格更大才替换，保证同龄时下标最小者胜出
		if a := c.slots[i].age.Load(); a > oldest {
			victim, oldest = i, a
		}
	}
	return victim
}
