package main

import (
	"context"
	"encoding/binary"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/agecache/pkg/storage/xagecache"
)

// picker 根据 (worker, seq) 确定性地生成键和操作类型。
// 同一 seed 的两次运行产生完全相同的访问序列。
type picker struct {
	seed uint64
	cfg  workloadConfig
}

func newPicker(seed uint64, cfg workloadConfig) picker {
	return picker{seed: seed, cfg: cfg}
}

func (p picker) hash(worker, seq int, salt byte) uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], p.seed)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(worker))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(seq))
	buf[16] = salt
	return xxhash.Sum64(buf[:])
}

// key 返回第 seq 次操作的键下标。
func (p picker) key(worker, seq int) int {
	h := p.hash(worker, seq, 'k')
	if p.cfg.HotKeys > 0 && int(h%100) < p.cfg.HotPercent {
		return int((h / 100) % uint64(p.cfg.HotKeys))
	}
	return int((h / 100) % uint64(p.cfg.Keys))
}

// op 返回第 seq 次操作的类型。
func (p picker) op(worker, seq int) opKind {
	h := p.hash(worker, seq, 'o')
	if int(h%100) < p.cfg.ReadPercent {
		return opGet
	}
	switch (h / 100) % 8 {
	case 0:
		return opRemove
	case 1, 2:
		return opSet
	case 3:
		return opValues
	default:
		return opAdd
	}
}

type opKind int

const (
	opGet opKind = iota
	opAdd
	opSet
	opRemove
	opValues
)

// counts 按操作类型计数。
type counts struct {
	gets    atomic.Uint64
	adds    atomic.Uint64
	sets    atomic.Uint64
	removes atomic.Uint64
	values  atomic.Uint64
	// fills Get 未命中后的回填次数，不计入 total。
	fills atomic.Uint64
}

func (c *counts) total() uint64 {
	return c.gets.Load() + c.adds.Load() + c.sets.Load() + c.removes.Load() + c.values.Load()
}

// runWorkload 用 workers 个 goroutine 执行 ops 次操作（ops <= 0 时直到 ctx 取消）。
// Get 未命中时回填，模拟 memoize 用法。
func runWorkload(ctx context.Context, c *xagecache.Cache[string, string], p picker, ops int, n *counts) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := range p.cfg.Workers {
		g.Go(func() error {
			for seq := 0; ops <= 0 || seq < ops; seq++ {
				if seq%64 == 0 {
					if err := ctx.Err(); err != nil {
						if ops <= 0 {
							return nil
						}
						return err
					}
				}
				apply(c, p, w, seq, n)
			}
			return nil
		})
	}
	return g.Wait()
}

func apply(c *xagecache.Cache[string, string], p picker, worker, seq int, n *counts) {
	k := "k" + strconv.Itoa(p.key(worker, seq))
	switch p.op(worker, seq) {
	case opGet:
		n.gets.Add(1)
		if _, err := c.Get(k); err != nil {
			c.Add(k, k)
			n.fills.Add(1)
		}
	case opAdd:
		n.adds.Add(1)
		if !c.Contains(k) {
			c.Add(k, k)
		}
	case opSet:
		n.sets.Add(1)
		c.Set(k, k+"'")
	case opRemove:
		n.removes.Add(1)
		c.Remove(k)
	case opValues:
		n.values.Add(1)
		c.Values()
	}
}
