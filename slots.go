package hashlink

import (
	"github.com/llxisdsh/hashlink/internal/opt"
)

// slot is the fixed-identity storage of one key/value pair.
//
// Live slots are threaded through the circular order list by next/prev.
// Free slots only use next, as the free list link, and hold zero key/value
// so the garbage collector can release whatever they referenced.
type slot[K comparable, V any] struct {
	opt.SlotHash_
	key   K
	value V
	next  uint32
	prev  uint32
}

// ============================================================================
// Slot store & free list
// ============================================================================

// ensureGuard lazily creates the guard slot. The guard is its own neighbour
// while the order list is empty.
//
//go:nosplit
func (m *LinkedMap[K, V]) ensureGuard() {
	if len(m.slots) == 0 {
		m.slots = append(m.slots, slot[K, V]{})
	}
}

// allocate returns a ready slot id, recycling a free slot before growing the
// arena.
func (m *LinkedMap[K, V]) allocate() uint32 {
	if id := m.free; id != guard {
		m.free = m.slots[id].next
		m.slots[id].next = guard
		return id
	}
	if uint64(len(m.slots)) >= maxSlots {
		panic("hashlink: too many entries")
	}
	m.slots = append(m.slots, slot[K, V]{})
	return uint32(len(m.slots) - 1)
}

// recycle pushes a detached slot onto the free list. Its key and value are
// released exactly here.
//
//go:nosplit
func (m *LinkedMap[K, V]) recycle(id uint32) {
	m.slots[id] = slot[K, V]{next: m.free}
	m.free = id
}

// ============================================================================
// Order list
// ============================================================================

// attachBefore splices id immediately before anchor. With anchor == guard the
// slot becomes the newest; with anchor == front it becomes the oldest.
//
//go:nosplit
func (m *LinkedMap[K, V]) attachBefore(id, anchor uint32) {
	prev := m.slots[anchor].prev
	s := &m.slots[id]
	s.prev = prev
	s.next = anchor
	m.slots[prev].next = id
	m.slots[anchor].prev = id
}

// detach unsplices id using its own links. id must be linked.
//
//go:nosplit
func (m *LinkedMap[K, V]) detach(id uint32) {
	s := &m.slots[id]
	m.slots[s.prev].next = s.next
	m.slots[s.next].prev = s.prev
}

//go:nosplit
func (m *LinkedMap[K, V]) moveToBack(id uint32) {
	if m.slots[guard].prev != id {
		m.detach(id)
		m.attachBefore(id, guard)
	}
}

//go:nosplit
func (m *LinkedMap[K, V]) moveToFront(id uint32) {
	if front := m.slots[guard].next; front != id {
		m.detach(id)
		m.attachBefore(id, front)
	}
}

// ============================================================================
// Index integration
// ============================================================================

// slotHash returns the hash of a live slot's key.
func (m *LinkedMap[K, V]) slotHash(id uint32) uintptr {
	s := &m.slots[id]
	if opt.EmbeddedHash_ {
		return s.GetHash()
	}
	return m.hashOf(&s.key)
}

// link stores a new pair in a fresh slot at the newest end and records it in
// the index under the already computed hash.
func (m *LinkedMap[K, V]) link(hash uintptr, hint int, key K, value V) uint32 {
	m.ensureGuard()
	id := m.allocate()
	s := &m.slots[id]
	s.key = key
	s.value = value
	s.SetHash(hash)
	m.attachBefore(id, guard)
	m.idx.insert(hash, id, hint, m.slotHash)
	return id
}

// unlink removes the record at pos for slot id and returns the owned pair.
func (m *LinkedMap[K, V]) unlink(pos int, id uint32) (key K, value V) {
	m.idx.erase(pos)
	m.detach(id)
	s := &m.slots[id]
	key, value = s.key, s.value
	m.recycle(id)
	return
}

// unlinkID removes a live slot known only by id, probing the index by the
// slot's hash and identity.
func (m *LinkedMap[K, V]) unlinkID(id uint32) (K, V) {
	return m.unlink(m.idx.findID(m.slotHash(id), id), id)
}

// compact renumbers the live slots in order, drops the free list and
// rebuilds the index at the smallest size that holds them.
func (m *LinkedMap[K, V]) compact() {
	n := m.Len()
	if n == 0 {
		m.slots = nil
		m.free = guard
		m.idx = index{}
		return
	}
	slots := make([]slot[K, V], n+1)
	i := uint32(1)
	for id := m.slots[guard].next; id != guard; id = m.slots[id].next {
		slots[i] = m.slots[id]
		slots[i].prev = i - 1
		slots[i].next = i + 1
		i++
	}
	slots[n].next = guard
	slots[guard].next = 1
	slots[guard].prev = uint32(n)
	m.slots = slots
	m.free = guard
	m.idx.init(calcGroups(n))
	for id := uint32(1); id <= uint32(n); id++ {
		hash := m.slotHash(id)
		m.idx.setAt(m.idx.findInsertSlot(hash), hash, id)
	}
}
