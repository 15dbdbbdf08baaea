package hashlink

import (
	"testing"
	"unsafe"
)

// identityHash makes every id its own hash.
func identityHash(id uint32) uintptr { return uintptr(id) }

func indexInsert(t *index, id uint32) {
	hash := identityHash(id)
	_, hint, ok := t.find(hash, func(x uint32) bool { return x == id })
	if ok {
		panic("duplicate id")
	}
	t.insert(hash, id, hint, identityHash)
}

func TestIndex_InsertFindErase(t *testing.T) {
	var idx index
	for id := uint32(1); id <= 100; id++ {
		indexInsert(&idx, id)
	}
	if idx.used != 100 {
		t.Fatalf("used=%d", idx.used)
	}
	for id := uint32(1); id <= 100; id++ {
		if pos := idx.findID(identityHash(id), id); pos < 0 || idx.ids[pos] != id {
			t.Fatalf("id %d not found", id)
		}
	}
	for id := uint32(1); id <= 100; id += 2 {
		idx.erase(idx.findID(identityHash(id), id))
	}
	for id := uint32(1); id <= 100; id++ {
		found := idx.findID(identityHash(id), id) >= 0
		if found != (id%2 == 0) {
			t.Fatalf("id %d found=%v", id, found)
		}
	}
	if idx.used != 50 {
		t.Fatalf("used=%d", idx.used)
	}
}

func TestIndex_EraseTombstones(t *testing.T) {
	var idx index
	idx.init(1)
	// Every id lands in the single group.
	for id := uint32(1); id <= 7; id++ {
		indexInsert(&idx, id)
	}
	if idx.growthLeft != 0 {
		t.Fatalf("growthLeft=%d", idx.growthLeft)
	}
	// The group still has one empty byte, so erasing gives the byte back.
	idx.erase(idx.findID(identityHash(3), 3))
	if idx.growthLeft != 1 {
		t.Fatalf("growthLeft=%d after erase", idx.growthLeft)
	}
	for g := range idx.ctrl {
		for j := range groupSize {
			if getByte(idx.ctrl[g], j) == ctrlDeleted {
				t.Fatalf("tombstone in a group with an empty byte")
			}
		}
	}
}

func TestIndex_TombstonesInFullGroups(t *testing.T) {
	var idx index
	idx.init(2)
	// Fill group 0 completely by hashing everything to it.
	zero := func(uint32) uintptr { return 0 }
	for id := uint32(1); id <= 8; id++ {
		_, hint, _ := idx.find(0, func(uint32) bool { return false })
		idx.insert(0, id, hint, zero)
	}
	if markZeroBytes(idx.ctrl[0]) != 0 {
		t.Fatalf("group 0 not full")
	}
	pos := idx.findID(0, 4)
	left := idx.growthLeft
	idx.erase(pos)
	if idx.ctrlAt(pos) != ctrlDeleted || idx.growthLeft != left {
		t.Fatalf("full group got an empty byte back")
	}
	// Entries probed past the tombstone stay reachable.
	for id := uint32(1); id <= 8; id++ {
		if found := idx.findID(0, id) >= 0; found != (id != 4) {
			t.Fatalf("id %d found=%v", id, found)
		}
	}
	// The tombstone is reused by the next insert on the same probe path.
	_, hint, _ := idx.find(0, func(uint32) bool { return false })
	if hint != pos {
		t.Fatalf("hint=%d want tombstone %d", hint, pos)
	}
	idx.insert(0, 9, hint, zero)
	if idx.ids[pos] != 9 {
		t.Fatalf("tombstone not reused")
	}
}

func TestIndex_ResizeDropsTombstones(t *testing.T) {
	var idx index
	for id := uint32(1); id <= 50; id++ {
		indexInsert(&idx, id)
	}
	for id := uint32(1); id <= 40; id++ {
		idx.erase(idx.findID(identityHash(id), id))
	}
	idx.resize(idx.used, identityHash)
	for g := range idx.ctrl {
		for j := range groupSize {
			if getByte(idx.ctrl[g], j) == ctrlDeleted {
				t.Fatalf("tombstone survived resize")
			}
		}
	}
	if idx.groups() != calcGroups(10) || idx.used != 10 {
		t.Fatalf("groups=%d used=%d", idx.groups(), idx.used)
	}
	for id := uint32(41); id <= 50; id++ {
		if idx.findID(identityHash(id), id) < 0 {
			t.Fatalf("id %d lost in resize", id)
		}
	}
}

func TestIndex_ReserveAndClear(t *testing.T) {
	var idx index
	idx.reserve(100, identityHash)
	groups := idx.groups()
	for id := uint32(1); id <= 100; id++ {
		indexInsert(&idx, id)
	}
	if idx.groups() != groups {
		t.Fatalf("grew after reserve: %d -> %d", groups, idx.groups())
	}
	c := idx.clone()
	idx.clear()
	if idx.used != 0 || idx.growthLeft != maxLoad(groups) || idx.findID(1, 1) >= 0 {
		t.Fatalf("clear left records")
	}
	if c.used != 100 || c.findID(1, 1) < 0 {
		t.Fatalf("clone shares storage")
	}
}

func TestIndex_HighBitKeysSpread(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		t.Skip("needs 64-bit hashes")
	}
	// n fits in 12 bits, so ids stay distinct up to a shift of 52.
	for _, shift := range []int{0, 32, 48, 52} {
		hashOf := func(id uint32) uintptr {
			return spread(uintptr(uint64(id) << shift))
		}
		const n = 4000
		var idx index
		h2s := make(map[uint8]struct{})
		for id := uint32(1); id <= n; id++ {
			hash := hashOf(id)
			h2s[h2(hash)] = struct{}{}
			_, hint, _ := idx.find(hash, func(uint32) bool { return false })
			idx.insert(hash, id, hint, hashOf)
		}
		if len(h2s) < 100 {
			t.Fatalf("shift=%d: only %d distinct h2 values", shift, len(h2s))
		}
		compares := 0
		for id := uint32(1); id <= n; id++ {
			pos, _, ok := idx.find(hashOf(id), func(x uint32) bool {
				compares++
				return x == id
			})
			if !ok || idx.ids[pos] != id {
				t.Fatalf("shift=%d: id %d not found", shift, id)
			}
		}
		if compares > 2*n {
			t.Fatalf("shift=%d: %d key comparisons for %d lookups", shift, compares, n)
		}
	}
}
