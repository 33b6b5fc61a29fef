package probability

import (
	"context"
	"sync"
)

// Cache memoizes extra-fields calculations keyed by the input tuple. The
// reference tables behind the calculations never change within a process, so
// entries need no invalidation, only a size bound.
type Cache interface {
	Get(ctx context.Context, key string) ([]Combination, bool)
	Set(ctx context.Context, key string, combos []Combination)
}

// boundedMap is a small FIFO-evicting map used for proportion memoization.
type boundedMap[V any] struct {
	mu    sync.Mutex
	max   int
	items map[string]V
	order []string
}

func newBoundedMap[V any](max int) *boundedMap[V] {
	return &boundedMap[V]{max: max, items: make(map[string]V, max)}
}

func (m *boundedMap[V]) get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *boundedMap[V]) set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; ok {
		m.items[key] = value
		return
	}
	if len(m.items) >= m.max {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.items, oldest)
	}
	m.items[key] = value
	m.order = append(m.order, key)
}

type boundedCache struct {
	inner *boundedMap[[]Combination]
}

func newBoundedCache(max int) *boundedCache {
	return &boundedCache{inner: newBoundedMap[[]Combination](max)}
}

func (c *boundedCache) Get(_ context.Context, key string) ([]Combination, bool) {
	return c.inner.get(key)
}

func (c *boundedCache) Set(_ context.Context, key string, combos []Combination) {
	c.inner.set(key, combos)
}
