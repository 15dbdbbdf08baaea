package hashlink

import (
	"testing"
	"unsafe"
)

func TestCalcGroups(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{0, 1},
		{1, 1},
		{7, 1},
		{8, 2},
		{14, 2},
		{15, 4},
		{1000, 256},
	}
	for _, c := range cases {
		got := calcGroups(c.size)
		if got != c.want {
			t.Fatalf("size=%d got=%d want=%d", c.size, got, c.want)
		}
		if c.size > 0 && maxLoad(got) < c.size {
			t.Fatalf("size=%d groups=%d hold only %d", c.size, got, maxLoad(got))
		}
		if got&(got-1) != 0 {
			t.Fatalf("size=%d groups=%d not a power of 2", c.size, got)
		}
	}
}

func TestNextPowOf2(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 64: 64, 65: 128}
	for n, want := range cases {
		if got := nextPowOf2(n); got != want {
			t.Fatalf("nextPowOf2(%d)=%d want %d", n, got, want)
		}
	}
}

func TestSWAR(t *testing.T) {
	var w uint64
	for i := range groupSize {
		w = setByte(w, uint8(0x80|i), i)
	}
	for i := range groupSize {
		if b := getByte(w, i); b != uint8(0x80|i) {
			t.Fatalf("byte %d = %#x", i, b)
		}
	}
	if markZeroBytes(w) != 0 || markFreeBytes(w) != 0 {
		t.Fatalf("full word reported free bytes")
	}

	w = setByte(w, ctrlEmpty, 5)
	if firstMarkedByteIndex(markZeroBytes(w)) != 5 {
		t.Fatalf("empty byte not found at 5")
	}
	w = setByte(w, ctrlDeleted, 2)
	if firstMarkedByteIndex(markFreeBytes(w)) != 2 {
		t.Fatalf("deleted byte not found at 2")
	}

	h := uint8(0x80 | 3)
	m := markZeroBytes(w ^ broadcast(h))
	if m == 0 || firstMarkedByteIndex(m) != 3 {
		t.Fatalf("h2 match=%#x", m)
	}
}

func TestHashParts(t *testing.T) {
	for _, h := range []uintptr{0, 1, 0x7f, 0x80, 0xdeadbeef} {
		if h2(h)&ctrlFull == 0 {
			t.Fatalf("h2(%#x) does not carry the full bit", h)
		}
		if h1(h) != int(h>>7) {
			t.Fatalf("h1(%#x)=%d", h, h1(h))
		}
	}
}

func TestSlotHashSize(t *testing.T) {
	type bare struct {
		key   uint64
		value uint64
		next  uint32
		prev  uint32
	}
	got := unsafe.Sizeof(slot[uint64, uint64]{})
	want := unsafe.Sizeof(bare{}) + unsafe.Sizeof(slot[uint64, uint64]{}.SlotHash_)
	if got != want {
		t.Fatalf("slot size=%d want %d", got, want)
	}
}
