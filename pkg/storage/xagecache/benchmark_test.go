package xagecache

import (
	"strconv"
	"testing"

	"github.com/dgraph-io/ristretto/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// 对比基准：同等容量下与 golang-lru、ristretto 的读写开销。
// 本包每次操作都线性扫描整张槽位表，成本随容量线性增长。

var benchCapacities = []int{32, 256, 1024}

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "key" + strconv.Itoa(i)
	}
	return keys
}

func BenchmarkAgeCache_Get(b *testing.B) {
	for _, capacity := range benchCapacities {
		b.Run(strconv.Itoa(capacity), func(b *testing.B) {
			c := New[string, int](capacity)
			keys := benchKeys(capacity)
			for i, k := range keys {
				c.Add(k, i)
			}
			i := 0
			b.ReportAllocs()
			for b.Loop() {
				_, _ = c.Get(keys[i%capacity])
				i++
			}
		})
	}
}

func BenchmarkAgeCache_AddEvict(b *testing.B) {
	for _, capacity := range benchCapacities {
		b.Run(strconv.Itoa(capacity), func(b *testing.B) {
			c := New[string, int](capacity)
			keys := benchKeys(capacity * 2)
			i := 0
			b.ReportAllocs()
			for b.Loop() {
				c.Add(keys[i%len(keys)], i)
				i++
			}
		})
	}
}

func BenchmarkAgeCache_GetParallel(b *testing.B) {
	c := New[string, int](256)
	keys := benchKeys(256)
	for i, k := range keys {
		c.Add(k, i)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.Get(keys[i%len(keys)])
			i++
		}
	})
}

func BenchmarkLRU_Get(b *testing.B) {
	for _, capacity := range benchCapacities {
		b.Run(strconv.Itoa(capacity), func(b *testing.B) {
			c, err := lru.New[string, int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			keys := benchKeys(capacity)
			for i, k := range keys {
				c.Add(k, i)
			}
			i := 0
			b.ReportAllocs()
			for b.Loop() {
				c.Get(keys[i%capacity])
				i++
			}
		})
	}
}

func BenchmarkLRU_AddEvict(b *testing.B) {
	for _, capacity := range benchCapacities {
		b.Run(strconv.Itoa(capacity), func(b *testing.B) {
			c, err := lru.New[string, int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			keys := benchKeys(capacity * 2)
			i := 0
			b.ReportAllocs()
			for b.Loop() {
				c.Add(keys[i%len(keys)], i)
				i++
			}
		})
	}
}

func BenchmarkRistretto_Get(b *testing.B) {
	for _, capacity := range benchCapacities {
		b.Run(strconv.Itoa(capacity), func(b *testing.B) {
			c, err := ristretto.NewCache(&ristretto.Config[string, int]{
				NumCounters: int64(capacity * 10),
				MaxCost:     int64(capacity),
				BufferItems: 64,
			})
			if err != nil {
				b.Fatal(err)
			}
			defer c.Close()
			keys := benchKeys(capacity)
			for i, k := range keys {
				c.Set(k, i, 1)
			}
			c.Wait()
			i := 0
			b.ReportAllocs()
			for b.Loop() {
				c.Get(keys[i%capacity])
				i++
			}
		})
	}
}
