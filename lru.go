package hashlink

import (
	"iter"
)

// LRU is a least-recently-used cache built on a LinkedMap in access order.
// The front of the order is the least recently used entry and is the one
// evicted when the cache is over capacity.
//
// Eviction callbacks:
//   - Methods that may evict take an onEvict func(K, V); nil drops evicted
//     pairs silently.
//   - The cache is fully consistent before onEvict is invoked, so the
//     callback may inspect the cache (but must not mutate it).
//
// Notes:
//   - Get, GetPtr and Contains promote and therefore mutate; readers must
//     not share an LRU without external locking (see SyncLRU).
//   - Entry and RawEntryMut make room before the lookup, so inserting through
//     them can leave the cache one entry over capacity until the next
//     evicting call.
type LRU[K comparable, V any] struct {
	m        LinkedMap[K, V]
	capacity int
}

// NewLRU creates an LRU holding at most capacity entries. It panics if
// capacity is negative.
func NewLRU[K comparable, V any](capacity int, options ...func(*MapConfig)) *LRU[K, V] {
	if capacity < 0 {
		panic("hashlink: negative capacity")
	}
	c := &LRU[K, V]{capacity: capacity}
	c.m.withOptions(options...)
	return c
}

// NewUnboundedLRU creates an LRU that never evicts on its own. Its order is
// still maintained, so RemoveLRU and SetCapacity keep working.
func NewUnboundedLRU[K comparable, V any](options ...func(*MapConfig)) *LRU[K, V] {
	return NewLRU[K, V](maxInt, options...)
}

// Capacity returns the maximum number of entries.
//
//go:nosplit
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Len returns the number of cached entries.
//
//go:nosplit
func (c *LRU[K, V]) Len() int {
	return c.m.Len()
}

// IsEmpty reports whether the cache holds no entries.
//
//go:nosplit
func (c *LRU[K, V]) IsEmpty() bool {
	return c.m.IsEmpty()
}

// evictOver removes least recently used entries while the cache holds more
// than limit, at most budget of them.
func (c *LRU[K, V]) evictOver(limit, budget int, onEvict func(K, V)) {
	for ; budget > 0 && c.m.Len() > limit; budget-- {
		k, v, _ := c.m.PopFront()
		if onEvict != nil {
			onEvict(k, v)
		}
	}
}

// SetCapacity changes the capacity, evicting least recently used entries
// until Len() <= capacity. It panics if capacity is negative.
func (c *LRU[K, V]) SetCapacity(capacity int, onEvict func(K, V)) {
	if capacity < 0 {
		panic("hashlink: negative capacity")
	}
	c.capacity = capacity
	c.evictOver(capacity, maxInt, onEvict)
}

// Insert stores value for key as the most recently used entry and returns
// the previous value if key was present. If the cache is then over capacity
// the least recently used entry is evicted; with capacity 0 that is the
// entry just inserted.
func (c *LRU[K, V]) Insert(key K, value V, onEvict func(K, V)) (previous V, loaded bool) {
	previous, loaded = c.m.Insert(key, value)
	c.evictOver(c.capacity, 1, onEvict)
	return
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	if p := c.GetPtr(key); p != nil {
		return *p, true
	}
	return
}

// GetPtr returns a pointer to the value for key, or nil, and marks the entry
// most recently used.
func (c *LRU[K, V]) GetPtr(key K) *V {
	_, id := c.m.idOf(&key)
	if id == guard {
		return nil
	}
	c.m.moveToBack(id)
	return &c.m.slots[id].value
}

// Peek returns the value for key without promoting it.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	return c.m.Get(key)
}

// PeekPtr returns a pointer to the value for key without promoting it.
func (c *LRU[K, V]) PeekPtr(key K) *V {
	return c.m.GetPtr(key)
}

// Contains reports whether key is cached and, if so, marks it most recently
// used.
func (c *LRU[K, V]) Contains(key K) bool {
	return c.m.ToBack(key)
}

// Entry makes room for one more entry, evicting the least recently used one
// if the cache is over capacity, then looks key up. Promotion through the
// returned entry is explicit (OccupiedEntry.MoveToBack).
func (c *LRU[K, V]) Entry(key K, onEvict func(K, V)) Entry[K, V] {
	c.evictOver(c.capacity, 1, onEvict)
	return c.m.Entry(key)
}

// RawEntry returns a read-only raw entry builder. Lookups do not promote.
func (c *LRU[K, V]) RawEntry() RawEntryBuilder[K, V] {
	return c.m.RawEntry()
}

// RawEntryMut is like Entry for the raw entry API.
func (c *LRU[K, V]) RawEntryMut(onEvict func(K, V)) RawEntryBuilderMut[K, V] {
	c.evictOver(c.capacity, 1, onEvict)
	return c.m.RawEntryMut()
}

// HashKey returns the hash the cache uses for key.
func (c *LRU[K, V]) HashKey(key K) uintptr {
	return c.m.HashKey(key)
}

// Remove deletes key and returns its value.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	return c.m.Remove(key)
}

// RemoveEntry deletes key and returns the stored key and value.
func (c *LRU[K, V]) RemoveEntry(key K) (K, V, bool) {
	return c.m.RemoveEntry(key)
}

// RemoveLRU removes and returns the least recently used entry.
func (c *LRU[K, V]) RemoveLRU() (K, V, bool) {
	return c.m.PopFront()
}

// PeekLRU returns the least recently used entry without removing it.
func (c *LRU[K, V]) PeekLRU() (K, V, bool) {
	return c.m.Front()
}

// Clear removes every entry. The capacity is unchanged.
func (c *LRU[K, V]) Clear() {
	c.m.Clear()
}

// All returns an iterator from the least to the most recently used entry.
// Iterating does not promote.
func (c *LRU[K, V]) All() iter.Seq2[K, V] {
	return c.m.All()
}

// Backward returns an iterator from the most to the least recently used
// entry.
func (c *LRU[K, V]) Backward() iter.Seq2[K, V] {
	return c.m.Backward()
}

// AllPtr is All with pointers to the values for in-place updates. It does
// not promote.
func (c *LRU[K, V]) AllPtr() iter.Seq2[K, *V] {
	return c.m.AllPtr()
}

// Keys returns an iterator over the keys in LRU order.
func (c *LRU[K, V]) Keys() iter.Seq[K] {
	return c.m.Keys()
}

// Values returns an iterator over the values in LRU order.
func (c *LRU[K, V]) Values() iter.Seq[V] {
	return c.m.Values()
}

// Drain empties the cache and returns its former contents in LRU order.
func (c *LRU[K, V]) Drain() iter.Seq2[K, V] {
	return c.m.Drain()
}

// Extend inserts every pair of seq as Insert does, dropping evicted pairs.
func (c *LRU[K, V]) Extend(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		c.Insert(k, v, nil)
	}
}

// Clone returns a copy of the cache with the same order and capacity.
func (c *LRU[K, V]) Clone() *LRU[K, V] {
	n := &LRU[K, V]{capacity: c.capacity}
	c.m.cloneTo(&n.m)
	return n
}
