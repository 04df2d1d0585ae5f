package xagecache

import (
	"slices"
	"sync"
)

// StatsSource 提供统计信息的对象，*Cache 实现此接口。
type StatsSource interface {
	Stats() Stats
}

var _ StatsSource = (*Cache[string, int])(nil)

// Registry 按名称登记缓存，用于统一查看统计信息。
// 零值不可用，使用 [NewRegistry] 创建。所有方法并发安全。
type Registry struct {
	mu      sync.RWMutex
	sources map[string]StatsSource
}

// NewRegistry 创建空的注册表。
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]StatsSource)}
}

// Register 以 name 登记统计来源。
func (r *Registry) Register(name string, src StatsSource) error {
	if name == "" {
		return ErrEmptyName
	}
	if src == nil {
		return ErrNilSource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[name]; ok {
		return ErrDuplicateName
	}
	r.sources[name] = src
	return nil
}

// Unregister 移除登记。name 不存在时为空操作。
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.sources, name)
	r.mu.Unlock()
}

// List 返回按字典序排列的缓存名称。
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Get 返回指定缓存的统计信息。
//
// 统计来源在锁外调用，避免与缓存自身的锁嵌套。
func (r *Registry) Get(name string) (Stats, bool) {
	r.mu.RLock()
	src, ok := r.sources[name]
	r.mu.RUnlock()

	if !ok {
		return Stats{}, false
	}
	return src.Stats(), true
}
