package refstore

import "fmt"

// Cache maps string keys to registered values of type T, looked up either
// by key or by the dense index Register returned for it.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Clear()
}

// CacheLocation pairs a cache's string key with the dense index it was
// registered at.
type CacheLocation struct {
	Key   string
	Index uint32
}

// SimpleCache is a fixed-capacity, append-only Cache[T] backed by a plain
// slice, sized once at construction.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

var _ Cache[any] = &SimpleCache[any]{}

// NewSimpleCache returns an empty SimpleCache[T] that rejects Register
// calls once it holds maxCapacity items.
func NewSimpleCache[T any](maxCapacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		items:       make([]T, 0, maxCapacity),
		itemIndices: make(map[string]int, maxCapacity),
		maxCapacity: maxCapacity,
	}
}

func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

func (c *SimpleCache[T]) GetItem(index int) *T {
	item := &c.items[index]
	return item
}

func (c *SimpleCache[T]) GetItem32(index uint32) *T {
	item := &c.items[index]
	return item
}

func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}

	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)

	return idx, nil
}

func (c *SimpleCache[T]) Clear() {
	c.items = make([]T, 0, c.maxCapacity)
	c.itemIndices = make(map[string]int, c.maxCapacity)
}
