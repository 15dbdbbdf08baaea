package hashlink

// index is an open-addressing table from precomputed key hashes to slot ids.
//
// Layout:
//   - ctrl holds one uint64 word per group; each byte is the control byte of
//     one position: ctrlEmpty, ctrlDeleted, or h2(hash) with ctrlFull set.
//   - ids holds the slot id stored at every position.
//
// The index never hashes or compares keys itself. Callers pass the hash and
// an equality predicate that dereferences the candidate slot id, so the
// table stays decoupled from the slot arena.
//
// Probing visits groups triangularly (g, g+1, g+3, g+6, ...), which covers
// every group of a power-of-2 table. A probe stops at the first group that
// still contains an empty byte.
type index struct {
	ctrl       []uint64
	ids        []uint32
	mask       int // number of groups - 1
	used       int // full positions
	growthLeft int // empty positions that may still be filled
}

func (t *index) init(groups int) {
	t.ctrl = make([]uint64, groups)
	t.ids = make([]uint32, groups*groupSize)
	t.mask = groups - 1
	t.used = 0
	t.growthLeft = maxLoad(groups)
}

//go:nosplit
func (t *index) groups() int {
	if t.ctrl == nil {
		return 0
	}
	return t.mask + 1
}

//go:nosplit
func (t *index) ctrlAt(pos int) uint8 {
	return getByte(t.ctrl[pos/groupSize], pos%groupSize)
}

// find probes for a record whose control byte matches hash and for which eq
// reports true.
//
// Returns:
//   - pos: position of the record, -1 if absent
//   - insertAt: the first empty or deleted position met along the probe
//     sequence, -1 if the table is not allocated; only meaningful when the
//     record is absent and the index is not mutated before use
//   - ok: whether the record was found
func (t *index) find(hash uintptr, eq func(id uint32) bool) (pos, insertAt int, ok bool) {
	insertAt = -1
	if t.ctrl == nil {
		return -1, -1, false
	}
	h2v := h2(hash)
	h2w := broadcast(h2v)
	g := h1(hash) & t.mask
	for step := 1; ; step++ {
		w := t.ctrl[g]
		for marked := markZeroBytes(w ^ h2w); marked != 0; marked &= marked - 1 {
			j := firstMarkedByteIndex(marked)
			if getByte(w, j) != h2v {
				continue
			}
			p := g*groupSize + j
			if eq(t.ids[p]) {
				return p, insertAt, true
			}
		}
		if insertAt < 0 {
			if free := markFreeBytes(w); free != 0 {
				insertAt = g*groupSize + firstMarkedByteIndex(free)
			}
		}
		if markZeroBytes(w) != 0 || step > t.mask {
			return -1, insertAt, false
		}
		g = (g + step) & t.mask
	}
}

// findID locates the record of a known slot id by its hash and identity.
func (t *index) findID(hash uintptr, id uint32) int {
	pos, _, _ := t.find(hash, func(x uint32) bool {
		return x == id
	})
	return pos
}

// findInsertSlot returns the first empty or deleted position on the probe
// sequence of hash. The table must be allocated and not full.
func (t *index) findInsertSlot(hash uintptr) int {
	g := h1(hash) & t.mask
	for step := 1; ; step++ {
		if free := markFreeBytes(t.ctrl[g]); free != 0 {
			return g*groupSize + firstMarkedByteIndex(free)
		}
		g = (g + step) & t.mask
	}
}

// setAt records id at pos, which must be empty or deleted.
//
//go:nosplit
func (t *index) setAt(pos int, hash uintptr, id uint32) {
	g, j := pos/groupSize, pos%groupSize
	if getByte(t.ctrl[g], j) == ctrlEmpty {
		t.growthLeft--
	}
	t.ctrl[g] = setByte(t.ctrl[g], h2(hash), j)
	t.ids[pos] = id
	t.used++
}

// insert records id under hash. The caller guarantees that no equal key is
// present. hint is the insertAt position returned by a find on the same
// hash with no mutation in between, or -1. hashOf recomputes the hash of a
// stored id when the table has to be rebuilt.
func (t *index) insert(hash uintptr, id uint32, hint int, hashOf func(id uint32) uintptr) {
	if hint < 0 || (t.growthLeft == 0 && t.ctrlAt(hint) == ctrlEmpty) {
		if t.growthLeft == 0 {
			t.resize(max(t.used+1, t.used*2), hashOf)
		}
		hint = t.findInsertSlot(hash)
	}
	t.setAt(hint, hash, id)
}

// erase removes the record at pos.
func (t *index) erase(pos int) {
	g, j := pos/groupSize, pos%groupSize
	w := t.ctrl[g]
	// A probe only continues past a group that has no empty byte, so a group
	// that still has one can take an empty byte back instead of a tombstone.
	if markZeroBytes(w) != 0 {
		t.ctrl[g] = setByte(w, ctrlEmpty, j)
		t.growthLeft++
	} else {
		t.ctrl[g] = setByte(w, ctrlDeleted, j)
	}
	t.ids[pos] = 0
	t.used--
}

// resize rebuilds the table with room for size records, dropping tombstones.
func (t *index) resize(size int, hashOf func(id uint32) uintptr) {
	oldCtrl, oldIDs := t.ctrl, t.ids
	t.init(calcGroups(size))
	for g, w := range oldCtrl {
		for full := w & metaMask; full != 0; full &= full - 1 {
			j := firstMarkedByteIndex(full)
			id := oldIDs[g*groupSize+j]
			hash := hashOf(id)
			t.setAt(t.findInsertSlot(hash), hash, id)
		}
	}
}

// reserve makes room for additional records without further growth.
func (t *index) reserve(additional int, hashOf func(id uint32) uintptr) {
	if additional <= 0 {
		return
	}
	if t.ctrl == nil {
		t.init(calcGroups(additional))
		return
	}
	if additional > t.growthLeft {
		t.resize(t.used+additional, hashOf)
	}
}

// clear drops every record but keeps the allocation.
func (t *index) clear() {
	if t.ctrl == nil {
		return
	}
	clear(t.ctrl)
	clear(t.ids)
	t.used = 0
	t.growthLeft = maxLoad(t.mask + 1)
}

func (t *index) clone() index {
	c := *t
	if t.ctrl != nil {
		c.ctrl = append([]uint64(nil), t.ctrl...)
		c.ids = append([]uint32(nil), t.ids...)
	}
	return c
}
