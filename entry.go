package hashlink

// Entry is the result of one lookup: either an occupied slot or the state
// needed to insert a vacant key without hashing or probing again.
//
// WARNING:
//   - An Entry is valid only until the map is mutated by anything other
//     than the Entry itself; do NOT keep it across such mutations.
//   - Not safe across goroutines.
type Entry[K comparable, V any] struct {
	occupied OccupiedEntry[K, V]
	vacant   VacantEntry[K, V]
	loaded   bool
}

// OccupiedEntry is a handle to a live entry.
type OccupiedEntry[K comparable, V any] struct {
	m   *LinkedMap[K, V]
	pos int    // index position of the record
	id  uint32 // slot id
}

// VacantEntry holds a key that is not in the map, its hash, and the index
// position found while probing for it.
type VacantEntry[K comparable, V any] struct {
	m    *LinkedMap[K, V]
	key  K
	hash uintptr
	hint int
}

// Entry looks key up with exactly one hash and one probe.
//
// Usage:
//
//	m.Entry("hits").AndModify(func(v *int) { *v++ }).OrInsert(1)
func (m *LinkedMap[K, V]) Entry(key K) Entry[K, V] {
	m.lazyInit()
	hash := m.hashOf(&key)
	pos, hint, ok := m.lookup(hash, &key)
	if ok {
		return Entry[K, V]{
			occupied: OccupiedEntry[K, V]{m: m, pos: pos, id: m.idx.ids[pos]},
			loaded:   true,
		}
	}
	return Entry[K, V]{
		vacant: VacantEntry[K, V]{m: m, key: key, hash: hash, hint: hint},
	}
}

// Loaded reports whether the entry exists in the map.
func (e Entry[K, V]) Loaded() bool {
	return e.loaded
}

// Occupied returns the occupied handle if the key is present.
func (e Entry[K, V]) Occupied() (OccupiedEntry[K, V], bool) {
	return e.occupied, e.loaded
}

// Vacant returns the vacant handle if the key is absent.
func (e Entry[K, V]) Vacant() (VacantEntry[K, V], bool) {
	return e.vacant, !e.loaded
}

// Key returns the entry's key. For an occupied entry this is the stored
// key.
func (e Entry[K, V]) Key() K {
	if e.loaded {
		return e.occupied.Key()
	}
	return e.vacant.key
}

// OrInsert returns a pointer to the present value, inserting value at the
// newest end first if the key is vacant.
func (e Entry[K, V]) OrInsert(value V) *V {
	if e.loaded {
		return e.occupied.ValuePtr()
	}
	return e.vacant.Insert(value)
}

// OrInsertWith is like OrInsert but only calls fn when the key is vacant.
func (e Entry[K, V]) OrInsertWith(fn func() V) *V {
	if e.loaded {
		return e.occupied.ValuePtr()
	}
	return e.vacant.Insert(fn())
}

// OrInsertWithKey is like OrInsertWith, passing the key to fn.
func (e Entry[K, V]) OrInsertWithKey(fn func(K) V) *V {
	if e.loaded {
		return e.occupied.ValuePtr()
	}
	return e.vacant.Insert(fn(e.vacant.key))
}

// AndModify calls fn on the present value, if any, and returns the entry.
func (e Entry[K, V]) AndModify(fn func(*V)) Entry[K, V] {
	if e.loaded {
		fn(e.occupied.ValuePtr())
	}
	return e
}

// ============================================================================
// OccupiedEntry
// ============================================================================

func (e OccupiedEntry[K, V]) mustLive() *slot[K, V] {
	if e.m == nil {
		panic("hashlink: vacant entry used as occupied")
	}
	return &e.m.slots[e.id]
}

// Key returns the stored key.
func (e OccupiedEntry[K, V]) Key() K {
	return e.mustLive().key
}

// Value returns the stored value.
func (e OccupiedEntry[K, V]) Value() V {
	return e.mustLive().value
}

// ValuePtr returns a pointer to the stored value for in-place mutation.
func (e OccupiedEntry[K, V]) ValuePtr() *V {
	return &e.mustLive().value
}

// Replace stores value and returns the previous one. The position is
// unchanged.
func (e OccupiedEntry[K, V]) Replace(value V) (previous V) {
	s := e.mustLive()
	previous, s.value = s.value, value
	return
}

// ReplaceKey stores key, which must be equal to the stored key, and returns
// the previous stored key.
func (e OccupiedEntry[K, V]) ReplaceKey(key K) (previous K) {
	s := e.mustLive()
	previous, s.key = s.key, key
	return
}

// MoveToFront moves the entry to the oldest end. The index record is not
// touched.
func (e OccupiedEntry[K, V]) MoveToFront() {
	e.mustLive()
	e.m.moveToFront(e.id)
}

// MoveToBack moves the entry to the newest end. The index record is not
// touched.
func (e OccupiedEntry[K, V]) MoveToBack() {
	e.mustLive()
	e.m.moveToBack(e.id)
}

// Remove deletes the entry and returns its value.
func (e OccupiedEntry[K, V]) Remove() V {
	_, v := e.RemoveEntry()
	return v
}

// RemoveEntry deletes the entry and returns the stored key and value.
func (e OccupiedEntry[K, V]) RemoveEntry() (K, V) {
	e.mustLive()
	return e.m.unlink(e.pos, e.id)
}

// ============================================================================
// VacantEntry
// ============================================================================

// Key returns the key that would be inserted.
func (e VacantEntry[K, V]) Key() K {
	return e.key
}

// Insert stores value at the newest end, reusing the hash and the probe
// position of the lookup, and returns a pointer to the stored value.
func (e VacantEntry[K, V]) Insert(value V) *V {
	if e.m == nil {
		panic("hashlink: occupied entry used as vacant")
	}
	id := e.m.link(e.hash, e.hint, e.key, value)
	return &e.m.slots[id].value
}
