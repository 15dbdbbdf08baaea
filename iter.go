package hashlink

import (
	"iter"
)

// Range calls yield for every entry from the oldest to the newest.
//
//   - Head position and length are captured when iteration starts; at most
//     that many entries are visited.
//   - The map must not be mutated during iteration.
//   - Returning false from yield stops iteration early.
func (m *LinkedMap[K, V]) Range(yield func(K, V) bool) {
	n := m.idx.used
	if n == 0 {
		return
	}
	for id := m.slots[guard].next; n > 0 && id != guard; n-- {
		s := &m.slots[id]
		next := s.next
		if !yield(s.key, s.value) {
			return
		}
		id = next
	}
}

// RangeBackward is Range from the newest to the oldest.
func (m *LinkedMap[K, V]) RangeBackward(yield func(K, V) bool) {
	n := m.idx.used
	if n == 0 {
		return
	}
	for id := m.slots[guard].prev; n > 0 && id != guard; n-- {
		s := &m.slots[id]
		prev := s.prev
		if !yield(s.key, s.value) {
			return
		}
		id = prev
	}
}

// All returns an iterator function for use with range-over-func.
// It provides the same functionality as Range but in iterator form.
//
//go:nosplit
func (m *LinkedMap[K, V]) All() iter.Seq2[K, V] {
	return m.Range
}

// Backward returns an iterator from the newest to the oldest entry.
//
//go:nosplit
func (m *LinkedMap[K, V]) Backward() iter.Seq2[K, V] {
	return m.RangeBackward
}

// Keys returns an iterator over the keys from the oldest to the newest.
func (m *LinkedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.Range(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Values returns an iterator over the values from the oldest to the newest.
func (m *LinkedMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.Range(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

// AllPtr is All with a pointer to each value, so values can be updated in
// place. Pointers are valid until the next insertion or removal.
func (m *LinkedMap[K, V]) AllPtr() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		n := m.idx.used
		if n == 0 {
			return
		}
		for id := m.slots[guard].next; n > 0 && id != guard; n-- {
			s := &m.slots[id]
			if !yield(s.key, &s.value) {
				return
			}
			id = s.next
		}
	}
}

// Drain takes the entire contents out of the map and returns an iterator
// over them from the oldest to the newest.
//
// The map is empty as soon as Drain returns, whether or not the iterator is
// used, and keeps its hasher and seed. The iterator can be consumed once;
// stopping early releases the remaining pairs.
func (m *LinkedMap[K, V]) Drain() iter.Seq2[K, V] {
	slots, n := m.slots, m.idx.used
	m.slots = nil
	m.free = guard
	m.idx = index{}
	return func(yield func(K, V) bool) {
		if n == 0 {
			return
		}
		id := slots[guard].next
		for ; n > 0; n-- {
			s := &slots[id]
			k, v, next := s.key, s.value, s.next
			*s = slot[K, V]{}
			id = next
			if !yield(k, v) {
				n--
				break
			}
		}
		if n > 0 {
			clear(slots)
		}
		n = 0
	}
}

// Retain keeps only the entries for which fn returns true, in order. fn may
// modify values through the pointer.
func (m *LinkedMap[K, V]) Retain(fn func(K, *V) bool) {
	n := m.idx.used
	if n == 0 {
		return
	}
	for id := m.slots[guard].next; n > 0 && id != guard; n-- {
		s := &m.slots[id]
		next := s.next
		if !fn(s.key, &s.value) {
			m.unlinkID(id)
		}
		id = next
	}
}
