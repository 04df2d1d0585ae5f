package xagecache

import "testing"

// FuzzCache 以字节序列驱动操作，校验槽位表不变量。
func FuzzCache(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	f.Add([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{5, 6, 7, 0x10, 0x21, 0x32})

	f.Fuzz(func(t *testing.T, ops []byte) {
		c := New[byte, int](16)
		for i, b := range ops {
			key := b >> 3
			switch b & 7 {
			case 0:
				c.Add(key, i)
			case 1:
				_, _ = c.Get(key)
			case 2:
				c.Set(key, i)
			case 3:
				c.Remove(key)
			case 4:
				c.Contains(key)
			case 5:
				c.Values()
			case 6:
				c.Reset()
			default:
				c.Entries()
			}

			if n := c.Len(); n > c.Capacity() {
				t.Fatalf("len %d exceeds capacity %d", n, c.Capacity())
			}
			if got := len(c.Values()); got != c.Len() {
				t.Fatalf("values %d != len %d", got, c.Len())
			}
		}

		for _, e := range c.Entries() {
			if !e.Occupied && (e.Key != 0 || e.Value != 0) {
				t.Fatalf("free slot holds data: %+v", e)
			}
		}
	})
}
