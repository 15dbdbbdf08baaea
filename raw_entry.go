package hashlink

// RawEntryBuilder looks entries up by a caller-supplied hash and predicate
// without mutating the map.
//
// The hash must be the one HashKey returns for the target key, and match
// must agree with == on the stored keys.
type RawEntryBuilder[K comparable, V any] struct {
	m *LinkedMap[K, V]
}

// RawEntryBuilderMut is the mutating form of RawEntryBuilder.
type RawEntryBuilderMut[K comparable, V any] struct {
	m *LinkedMap[K, V]
}

// RawEntry is the result of a raw lookup.
//
// WARNING: valid only until the map is mutated by anything other than the
// RawEntry itself.
type RawEntry[K comparable, V any] struct {
	occupied OccupiedEntry[K, V]
	vacant   RawVacantEntry[K, V]
	loaded   bool
}

// RawVacantEntry remembers the hash and probe position of a missed raw
// lookup. The key is supplied at insertion time.
type RawVacantEntry[K comparable, V any] struct {
	m    *LinkedMap[K, V]
	hash uintptr
	hint int
}

// RawEntry returns a read-only raw entry builder.
func (m *LinkedMap[K, V]) RawEntry() RawEntryBuilder[K, V] {
	return RawEntryBuilder[K, V]{m: m}
}

// RawEntryMut returns a raw entry builder whose results can mutate the map.
func (m *LinkedMap[K, V]) RawEntryMut() RawEntryBuilderMut[K, V] {
	return RawEntryBuilderMut[K, V]{m: m}
}

// rawFind probes by hash and predicate.
func (m *LinkedMap[K, V]) rawFind(hash uintptr, match func(K) bool) (pos, hint int, ok bool) {
	return m.idx.find(hash, func(id uint32) bool {
		return match(m.slots[id].key)
	})
}

// FromKey looks key up, hashing it with the map's hasher.
func (b RawEntryBuilder[K, V]) FromKey(key K) (K, V, bool) {
	return b.m.GetKeyValue(key)
}

// FromKeyHashed looks key up under a precomputed hash.
func (b RawEntryBuilder[K, V]) FromKeyHashed(hash uintptr, key K) (K, V, bool) {
	return b.FromHash(hash, func(k K) bool {
		return k == key
	})
}

// FromHash looks up the entry whose stored key satisfies match under hash.
func (b RawEntryBuilder[K, V]) FromHash(hash uintptr, match func(K) bool) (k K, v V, ok bool) {
	pos, _, found := b.m.rawFind(hash, match)
	if !found {
		return
	}
	s := &b.m.slots[b.m.idx.ids[pos]]
	return s.key, s.value, true
}

// FromKey looks key up, hashing it with the map's hasher.
func (b RawEntryBuilderMut[K, V]) FromKey(key K) RawEntry[K, V] {
	b.m.lazyInit()
	return b.FromKeyHashed(b.m.hashOf(&key), key)
}

// FromKeyHashed looks key up under a precomputed hash.
func (b RawEntryBuilderMut[K, V]) FromKeyHashed(hash uintptr, key K) RawEntry[K, V] {
	return b.FromHash(hash, func(k K) bool {
		return k == key
	})
}

// FromHash looks up the entry whose stored key satisfies match under hash.
func (b RawEntryBuilderMut[K, V]) FromHash(hash uintptr, match func(K) bool) RawEntry[K, V] {
	m := b.m
	m.lazyInit()
	pos, hint, ok := m.rawFind(hash, match)
	if ok {
		return RawEntry[K, V]{
			occupied: OccupiedEntry[K, V]{m: m, pos: pos, id: m.idx.ids[pos]},
			loaded:   true,
		}
	}
	return RawEntry[K, V]{
		vacant: RawVacantEntry[K, V]{m: m, hash: hash, hint: hint},
	}
}

// Loaded reports whether the entry exists in the map.
func (e RawEntry[K, V]) Loaded() bool {
	return e.loaded
}

// Occupied returns the occupied handle if the lookup hit.
func (e RawEntry[K, V]) Occupied() (OccupiedEntry[K, V], bool) {
	return e.occupied, e.loaded
}

// Vacant returns the vacant handle if the lookup missed.
func (e RawEntry[K, V]) Vacant() (RawVacantEntry[K, V], bool) {
	return e.vacant, !e.loaded
}

// OrInsert returns a pointer to the present value, inserting key and value
// first if the lookup missed.
func (e RawEntry[K, V]) OrInsert(key K, value V) *V {
	if e.loaded {
		return e.occupied.ValuePtr()
	}
	return e.vacant.Insert(key, value)
}

// OrInsertWith is like OrInsert but only calls fn when the lookup missed.
func (e RawEntry[K, V]) OrInsertWith(fn func() (K, V)) *V {
	if e.loaded {
		return e.occupied.ValuePtr()
	}
	return e.vacant.Insert(fn())
}

// AndModify calls fn on the present pair, if any, and returns the entry.
func (e RawEntry[K, V]) AndModify(fn func(K, *V)) RawEntry[K, V] {
	if e.loaded {
		s := e.occupied.mustLive()
		fn(s.key, &s.value)
	}
	return e
}

// Insert hashes key with the map's hasher and stores the pair at the newest
// end. The key must not already be present.
func (e RawVacantEntry[K, V]) Insert(key K, value V) *V {
	if e.m == nil {
		panic("hashlink: occupied entry used as vacant")
	}
	return e.InsertHashed(e.m.hashOf(&key), key, value)
}

// InsertHashed stores the pair under a precomputed hash, which must be the
// one HashKey returns for key. The key must not already be present.
func (e RawVacantEntry[K, V]) InsertHashed(hash uintptr, key K, value V) *V {
	if e.m == nil {
		panic("hashlink: occupied entry used as vacant")
	}
	hint := e.hint
	if hash != e.hash {
		hint = -1
	}
	id := e.m.link(hash, hint, key, value)
	return &e.m.slots[id].value
}
