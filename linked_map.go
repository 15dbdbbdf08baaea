package hashlink

import (
	"math/rand/v2"
	"slices"
	"unsafe"
)

// LinkedMap is a hash map that remembers the order of its entries.
//
// Entries are kept in an arena of fixed-identity slots. A circular doubly
// linked list threaded through the slots gives the order (insertion order,
// or access order when callers move entries), a free list recycles removed
// slots, and an open-addressing index maps key hashes to slot ids.
//
// Lookups, inserts, removals and repositioning are O(1) on average.
//
// Usage recommendations:
//   - Direct declaration: var m LinkedMap[string, int]
//   - Pre-allocate capacity: NewLinkedMap[string, int](WithCapacity(1000))
//
// Notes:
//   - LinkedMap must not be copied after first use; use Clone.
//   - LinkedMap is not safe for concurrent use. Readers may share it only
//     while no goroutine mutates it.
//   - Pointers returned by GetPtr and entry handles stay valid until the
//     next insertion or structural change.
type LinkedMap[K comparable, V any] struct {
	_       noCopy
	slots   []slot[K, V] // slots[guard] is the guard once allocated
	free    uint32       // head of the free list, guard when empty
	idx     index
	seed    uintptr
	keyHash HashFunc // WithKeyHasher
}

// NewLinkedMap creates a new LinkedMap instance. Direct initialization is
// also supported.
//
// Parameters:
//   - options: configuration options (WithCapacity, WithKeyHasher, etc.)
func NewLinkedMap[K comparable, V any](
	options ...func(*MapConfig),
) *LinkedMap[K, V] {
	m := &LinkedMap[K, V]{}
	m.withOptions(options...)
	return m
}

// withOptions initializes the LinkedMap through the functional options
// pattern.
//
// Configuration Priority (highest to lowest):
//   - Explicit With* functions (WithKeyHasher, WithBuiltInHasher)
//   - Interface implementations (IHashFunc)
//   - Default built-in implementations (defaultHasher) - fallback
func (m *LinkedMap[K, V]) withOptions(
	options ...func(*MapConfig),
) {
	cfg := buildConfig(options)
	m.init(&cfg)
}

func (m *LinkedMap[K, V]) init(cfg *MapConfig) {
	if cfg.keyHash == nil {
		cfg.keyHash = parseKeyInterface[K]()
	}
	m.keyHash = defaultHasher[K]()
	if cfg.keyHash != nil {
		m.keyHash = cfg.keyHash
	}
	if cfg.seedSet {
		m.seed = cfg.seed
	} else {
		m.seed = uintptr(rand.Uint64())
	}
	if cfg.capacity > 0 {
		m.Reserve(cfg.capacity)
	}
}

// lazyInit prepares a zero-value map for hashing.
//
//go:nosplit
func (m *LinkedMap[K, V]) lazyInit() {
	if m.keyHash == nil {
		m.init(&MapConfig{})
	}
}

// hashOf hashes a key with the map's hasher and seed.
func (m *LinkedMap[K, V]) hashOf(key *K) uintptr {
	return spread(m.keyHash(noescape(unsafe.Pointer(key)), m.seed))
}

// lookup performs the one hash probe shared by every keyed operation.
func (m *LinkedMap[K, V]) lookup(hash uintptr, key *K) (pos, hint int, ok bool) {
	return m.idx.find(hash, func(id uint32) bool {
		return m.slots[id].key == *key
	})
}

// idOf returns the slot id of key, or guard if absent.
func (m *LinkedMap[K, V]) idOf(key *K) (pos int, id uint32) {
	if m.idx.used == 0 {
		return -1, guard
	}
	pos, _, ok := m.lookup(m.hashOf(key), key)
	if !ok {
		return -1, guard
	}
	return pos, m.idx.ids[pos]
}

// HashKey returns the hash this map uses for key. The result can be passed
// to the raw entry API.
func (m *LinkedMap[K, V]) HashKey(key K) uintptr {
	m.lazyInit()
	return m.hashOf(&key)
}

// Len returns the number of entries in the map.
//
//go:nosplit
func (m *LinkedMap[K, V]) Len() int {
	return m.idx.used
}

// IsEmpty reports whether the map holds no entries.
//
//go:nosplit
func (m *LinkedMap[K, V]) IsEmpty() bool {
	return m.idx.used == 0
}

// Get returns the value stored for key without changing the order.
func (m *LinkedMap[K, V]) Get(key K) (value V, ok bool) {
	if _, id := m.idOf(&key); id != guard {
		return m.slots[id].value, true
	}
	return
}

// GetPtr returns a pointer to the value stored for key, or nil. The order
// is not changed.
func (m *LinkedMap[K, V]) GetPtr(key K) *V {
	if _, id := m.idOf(&key); id != guard {
		return &m.slots[id].value
	}
	return nil
}

// GetKeyValue returns the stored key together with its value.
func (m *LinkedMap[K, V]) GetKeyValue(key K) (k K, v V, ok bool) {
	if _, id := m.idOf(&key); id != guard {
		s := &m.slots[id]
		return s.key, s.value, true
	}
	return
}

// MustGet returns the value stored for key and panics if it is absent.
func (m *LinkedMap[K, V]) MustGet(key K) V {
	if _, id := m.idOf(&key); id != guard {
		return m.slots[id].value
	}
	panic("hashlink: key not found")
}

// Contains reports whether key is present.
func (m *LinkedMap[K, V]) Contains(key K) bool {
	_, id := m.idOf(&key)
	return id != guard
}

// Insert stores value for key at the newest end of the order.
// If key is already present its value is overwritten and the entry moves
// to the newest end; the previous value is returned with loaded == true.
func (m *LinkedMap[K, V]) Insert(key K, value V) (previous V, loaded bool) {
	m.lazyInit()
	hash := m.hashOf(&key)
	pos, hint, ok := m.lookup(hash, &key)
	if ok {
		id := m.idx.ids[pos]
		s := &m.slots[id]
		previous, s.value = s.value, value
		m.moveToBack(id)
		return previous, true
	}
	m.link(hash, hint, key, value)
	return
}

// Replace is like Insert, but an existing entry keeps its position.
func (m *LinkedMap[K, V]) Replace(key K, value V) (previous V, loaded bool) {
	m.lazyInit()
	hash := m.hashOf(&key)
	pos, hint, ok := m.lookup(hash, &key)
	if ok {
		s := &m.slots[m.idx.ids[pos]]
		previous, s.value = s.value, value
		return previous, true
	}
	m.link(hash, hint, key, value)
	return
}

// Remove deletes key and returns its value.
func (m *LinkedMap[K, V]) Remove(key K) (value V, ok bool) {
	_, value, ok = m.RemoveEntry(key)
	return
}

// RemoveEntry deletes key and returns the stored key and value.
func (m *LinkedMap[K, V]) RemoveEntry(key K) (k K, v V, ok bool) {
	pos, id := m.idOf(&key)
	if id == guard {
		return
	}
	k, v = m.unlink(pos, id)
	return k, v, true
}

// Front returns the oldest entry.
func (m *LinkedMap[K, V]) Front() (key K, value V, ok bool) {
	if m.idx.used == 0 {
		return
	}
	s := &m.slots[m.slots[guard].next]
	return s.key, s.value, true
}

// Back returns the newest entry.
func (m *LinkedMap[K, V]) Back() (key K, value V, ok bool) {
	if m.idx.used == 0 {
		return
	}
	s := &m.slots[m.slots[guard].prev]
	return s.key, s.value, true
}

// PopFront removes and returns the oldest entry.
func (m *LinkedMap[K, V]) PopFront() (key K, value V, ok bool) {
	if m.idx.used == 0 {
		return
	}
	key, value = m.unlinkID(m.slots[guard].next)
	return key, value, true
}

// PopBack removes and returns the newest entry.
func (m *LinkedMap[K, V]) PopBack() (key K, value V, ok bool) {
	if m.idx.used == 0 {
		return
	}
	key, value = m.unlinkID(m.slots[guard].prev)
	return key, value, true
}

// ToFront moves key to the oldest end. It reports whether key was present.
func (m *LinkedMap[K, V]) ToFront(key K) bool {
	_, id := m.idOf(&key)
	if id == guard {
		return false
	}
	m.moveToFront(id)
	return true
}

// ToBack moves key to the newest end. It reports whether key was present.
func (m *LinkedMap[K, V]) ToBack(key K) bool {
	_, id := m.idOf(&key)
	if id == guard {
		return false
	}
	m.moveToBack(id)
	return true
}

// Clear removes all entries, keeping the allocated storage.
func (m *LinkedMap[K, V]) Clear() {
	if len(m.slots) == 0 {
		return
	}
	m.idx.clear()
	clear(m.slots)
	m.slots = m.slots[:1]
	m.free = guard
}

// Reserve makes room for at least additional more entries, so that the next
// additional insertions grow neither the index nor the slot arena.
func (m *LinkedMap[K, V]) Reserve(additional int) {
	if additional <= 0 {
		return
	}
	m.lazyInit()
	m.idx.reserve(additional, m.slotHash)
	m.ensureGuard()
	m.slots = slices.Grow(m.slots, additional)
}

// ShrinkToFit releases every free slot and shrinks the index to the
// smallest size that holds the current entries. Order and contents are
// unchanged.
func (m *LinkedMap[K, V]) ShrinkToFit() {
	if len(m.slots) == 0 {
		return
	}
	m.compact()
}

// Clone returns a copy of the map with the same order, hasher and seed.
// Keys and values are copied by assignment.
func (m *LinkedMap[K, V]) Clone() *LinkedMap[K, V] {
	c := &LinkedMap[K, V]{}
	m.cloneTo(c)
	return c
}

func (m *LinkedMap[K, V]) cloneTo(c *LinkedMap[K, V]) {
	c.slots = slices.Clone(m.slots)
	c.free = m.free
	c.idx = m.idx.clone()
	c.seed = m.seed
	c.keyHash = m.keyHash
}

// Extend inserts every pair of seq in order, as Insert does.
func (m *LinkedMap[K, V]) Extend(seq func(yield func(K, V) bool)) {
	for k, v := range seq {
		m.Insert(k, v)
	}
}
