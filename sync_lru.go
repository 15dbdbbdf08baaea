package hashlink

import (
	"context"
	"sync"
	"sync/atomic"
)

// SyncLRU is an LRU guarded by a mutex, safe for concurrent use.
//
// Evicted pairs are collected while the lock is held and handed to onEvict
// after it is released, so the callback may call back into the cache.
//
// GetOrLoad fills misses through a loader, running at most one loader per
// key at a time.
type SyncLRU[K comparable, V any] struct {
	_       noCopy
	mu      sync.Mutex
	c       LRU[K, V]
	onEvict func(K, V)
	loads   loadGroup[K, V]
	// gen is bumped under mu by Remove and Clear. A fill caches its value
	// only if gen is unchanged since the fill started.
	gen uint64

	hits       atomic.Uint64
	misses     atomic.Uint64
	loadCount  atomic.Uint64
	loadErrors atomic.Uint64
	evictions  atomic.Uint64
}

// Stats is a snapshot of SyncLRU counters.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Loads      uint64
	LoadErrors uint64
	Evictions  uint64
	Len        int
	Capacity   int
}

// evicted is one pair removed by capacity pressure.
type evicted[K comparable, V any] struct {
	key   K
	value V
}

// NewSyncLRU creates a SyncLRU holding at most capacity entries. onEvict may
// be nil. It panics if capacity is negative.
func NewSyncLRU[K comparable, V any](
	capacity int,
	onEvict func(K, V),
	options ...func(*MapConfig),
) *SyncLRU[K, V] {
	if capacity < 0 {
		panic("hashlink: negative capacity")
	}
	s := &SyncLRU[K, V]{onEvict: onEvict}
	s.c.capacity = capacity
	s.c.m.withOptions(options...)
	return s
}

// collect returns an eviction callback that records pairs for notify.
func (s *SyncLRU[K, V]) collect(out *[]evicted[K, V]) func(K, V) {
	return func(k K, v V) {
		*out = append(*out, evicted[K, V]{k, v})
	}
}

// notify counts the evicted pairs and passes them to onEvict. It must be
// called without the lock.
func (s *SyncLRU[K, V]) notify(out []evicted[K, V]) {
	if len(out) == 0 {
		return
	}
	s.evictions.Add(uint64(len(out)))
	if s.onEvict == nil {
		return
	}
	for _, e := range out {
		s.onEvict(e.key, e.value)
	}
}

// Get returns the value for key and marks it most recently used.
func (s *SyncLRU[K, V]) Get(key K) (value V, ok bool) {
	s.mu.Lock()
	value, ok = s.c.Get(key)
	s.mu.Unlock()
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return
}

// Peek returns the value for key without promoting it. Peeks are not
// counted as hits or misses.
func (s *SyncLRU[K, V]) Peek(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Peek(key)
}

// Contains reports whether key is cached, marking it most recently used.
func (s *SyncLRU[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Contains(key)
}

// Insert stores value for key as the most recently used entry, returning the
// previous value if key was present.
func (s *SyncLRU[K, V]) Insert(key K, value V) (previous V, loaded bool) {
	var out []evicted[K, V]
	s.mu.Lock()
	previous, loaded = s.c.Insert(key, value, s.collect(&out))
	s.mu.Unlock()
	s.notify(out)
	return
}

// Remove deletes key and returns its value. Fills already running do not
// cache their results, and the next GetOrLoad for key loads again.
func (s *SyncLRU[K, V]) Remove(key K) (value V, ok bool) {
	s.mu.Lock()
	value, ok = s.c.Remove(key)
	s.gen++
	s.mu.Unlock()
	s.loads.Forget(key)
	return
}

// RemoveLRU removes and returns the least recently used entry. It is not
// counted as an eviction.
func (s *SyncLRU[K, V]) RemoveLRU() (K, V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.RemoveLRU()
}

// PeekLRU returns the least recently used entry.
func (s *SyncLRU[K, V]) PeekLRU() (K, V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.PeekLRU()
}

// SetCapacity changes the capacity, evicting as needed.
func (s *SyncLRU[K, V]) SetCapacity(capacity int) {
	if capacity < 0 {
		panic("hashlink: negative capacity")
	}
	var out []evicted[K, V]
	s.mu.Lock()
	s.c.SetCapacity(capacity, s.collect(&out))
	s.mu.Unlock()
	s.notify(out)
}

// Len returns the number of cached entries.
func (s *SyncLRU[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Len()
}

// Capacity returns the maximum number of entries.
func (s *SyncLRU[K, V]) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Capacity()
}

// Clear removes every entry without calling onEvict. Fills already running
// do not cache their results.
func (s *SyncLRU[K, V]) Clear() {
	s.mu.Lock()
	s.c.Clear()
	s.gen++
	s.mu.Unlock()
}

// Keys returns a snapshot of the keys from the least to the most recently
// used.
func (s *SyncLRU[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]K, 0, s.c.Len())
	for k := range s.c.Keys() {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of the underlying cache.
func (s *SyncLRU[K, V]) Snapshot() *LRU[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Clone()
}

// GetOrLoad returns the cached value for key, or calls load on a miss and
// caches its result. Concurrent misses on the same key share one load.
//
// A load error is returned unchanged and nothing is cached. If load panics,
// every caller waiting on it panics with the recovered value and its stack.
func (s *SyncLRU[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	return s.loads.Do(key, s.filler(key, load))
}

// GetOrLoadContext is GetOrLoad that stops waiting when ctx is done. The
// load itself keeps running and still fills the cache.
//
// The load runs on its own goroutine. If it panics, the *panicError is
// returned as the error instead of being re-raised; if it calls
// runtime.Goexit, an error is returned as well.
func (s *SyncLRU[K, V]) GetOrLoadContext(
	ctx context.Context,
	key K,
	load func() (V, error),
) (v V, err error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	select {
	case r := <-s.loads.DoChan(key, s.filler(key, load)):
		return r.Val, r.Err
	case <-ctx.Done():
		return v, ctx.Err()
	}
}

// filler wraps load so the value is cached before waiters are released.
// The value is not cached if Remove or Clear ran during the load, and a
// value inserted for key meanwhile wins over the loaded one.
func (s *SyncLRU[K, V]) filler(key K, load func() (V, error)) func() (V, error) {
	return func() (V, error) {
		// A fill that finished between our miss and joining the group has
		// already cached the key.
		s.mu.Lock()
		if v, ok := s.c.Peek(key); ok {
			s.mu.Unlock()
			return v, nil
		}
		gen := s.gen
		s.mu.Unlock()

		s.loadCount.Add(1)
		v, err := load()
		if err != nil {
			s.loadErrors.Add(1)
			return v, err
		}

		var out []evicted[K, V]
		s.mu.Lock()
		if cur, ok := s.c.Peek(key); ok {
			v = cur
		} else if s.gen == gen {
			s.c.Insert(key, v, s.collect(&out))
		}
		s.mu.Unlock()
		s.notify(out)
		return v, nil
	}
}

// Stats returns a snapshot of the counters.
func (s *SyncLRU[K, V]) Stats() Stats {
	s.mu.Lock()
	n, c := s.c.Len(), s.c.Capacity()
	s.mu.Unlock()
	return Stats{
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Loads:      s.loadCount.Load(),
		LoadErrors: s.loadErrors.Load(),
		Evictions:  s.evictions.Load(),
		Len:        n,
		Capacity:   c,
	}
}
