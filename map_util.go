package hashlink

import (
	"math/bits"
	"reflect"
	"unsafe"
)

// ============================================================================
// Private Constants
// ============================================================================

const (
	// groupSize is the number of control bytes packed into one uint64 word.
	// The index probes one group at a time with SWAR byte matching.
	groupSize = 8

	// Control byte states. A full byte always carries ctrlFull; the low 7
	// bits hold h2 of the key hash.
	ctrlEmpty   uint8 = 0x00
	ctrlDeleted uint8 = 0x01
	ctrlFull    uint8 = 0x80

	// metaMask selects the most significant bit of every control byte.
	metaMask uint64 = 0x8080808080808080

	// loadFactor numerator/denominator: grow when occupancy > 7/8.
	loadFactorNum = 7
	loadFactorDen = 8

	// guard is the id of the sentinel slot. It doubles as the "no link"
	// marker of the free list because the guard is never free.
	guard uint32 = 0

	// maxSlots bounds the arena so slot ids fit in an uint32.
	maxSlots = 1<<32 - 1
)

const maxInt = int(^uint(0) >> 1)

// ============================================================================
// Utility Functions
// ============================================================================

// calcGroups computes the number of control groups needed to hold size
// entries without exceeding the load factor.
// return value must be a power of 2
//
//go:nosplit
func calcGroups(size int) int {
	if size <= 0 {
		return 1
	}
	capacity := (size*loadFactorDen + loadFactorNum - 1) / loadFactorNum
	return nextPowOf2((capacity + groupSize - 1) / groupSize)
}

// maxLoad returns how many entries a table of the given group count may
// hold before it has to grow.
//
//go:nosplit
func maxLoad(groups int) int {
	return groups * groupSize * loadFactorNum / loadFactorDen
}

// nextPowOf2 returns the smallest power of two >= n, and 1 for n <= 1.
//
//go:nosplit
func nextPowOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// noescape returns p unchanged while hiding it from escape analysis, so
// hashing a key through a pointer does not move the key to the heap.
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	//nolint:all
	//goland:noinspection ALL
	return unsafe.Pointer(x ^ 0)
}

//go:nosplit
//go:nocheckptr
func noEscape[T any](p *T) *T {
	return (*T)(noescape(unsafe.Pointer(p)))
}

// ============================================================================
// SWAR Utilities
// ============================================================================

// spread finishes a hash with the murmur3 finalizer so every input bit
// affects both h1 and h2. Integer keys hash to themselves, and without it
// keys differing only in their high bits would share one probe start and
// one h2.
//
//go:nosplit
func spread(h uintptr) uintptr {
	if unsafe.Sizeof(h) == 8 {
		x := uint64(h)
		x ^= x >> 33
		x *= 0xff51afd7ed558ccd
		x ^= x >> 33
		x *= 0xc4ceb9fe1a85ec53
		x ^= x >> 33
		return uintptr(x)
	}
	x := uint32(h)
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return uintptr(x)
}

// h1 extracts the group index from a hash value.
//
//go:nosplit
func h1(h uintptr) int {
	return int(h >> 7)
}

// h2 extracts the byte-level hash for in-group lookups.
//
//go:nosplit
func h2(h uintptr) uint8 {
	return uint8(h) | ctrlFull
}

// broadcast replicates a byte value across all bytes of an uint64.
//
//go:nosplit
func broadcast(b uint8) uint64 {
	return 0x101010101010101 * uint64(b)
}

// firstMarkedByteIndex finds the index of the first marked byte in an uint64.
// It uses the trailing zeros count to determine the position of the first set
// bit, then converts that bit position to a byte index (dividing by 8).
//
//go:nosplit
func firstMarkedByteIndex(w uint64) int {
	return bits.TrailingZeros64(w) >> 3
}

// markZeroBytes implements SWAR (SIMD Within A Register) byte search.
// It may produce false positives (e.g., for 0x0100), so results should be
// verified. Returns an uint64 with the most significant bit of each byte set if
// that byte is zero.
//
// Notes:
//   - Every zero byte is marked, so a zero result proves the word holds no
//     zero byte.
//   - A false positive can only appear above a true zero byte.
//
//go:nosplit
func markZeroBytes(w uint64) uint64 {
	return (w - 0x0101010101010101) & (^w) & metaMask
}

// markFreeBytes marks the bytes that are empty or deleted. Unlike
// markZeroBytes the result is exact.
//
//go:nosplit
func markFreeBytes(w uint64) uint64 {
	return (^w) & metaMask
}

// setByte sets the byte at index idx in the uint64 w to the value b.
// Returns the modified uint64 value.
//
//go:nosplit
func setByte(w uint64, b uint8, idx int) uint64 {
	shift := idx << 3
	return (w &^ (0xff << shift)) | (uint64(b) << shift)
}

//go:nosplit
func getByte(w uint64, idx int) uint8 {
	return uint8(w >> (idx << 3))
}

// ============================================================================
// Copy Utilities
// ============================================================================

// noCopy makes go vet's copylocks check flag copies of a LinkedMap or
// SyncLRU after first use. Use it as a named field, never embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ============================================================================
// Hash Utilities
// ============================================================================

// HashFunc hashes the key stored at ptr with the given seed.
type HashFunc func(ptr unsafe.Pointer, seed uintptr) uintptr

// defaultHasher picks a hasher for K. Integer kinds hash to their own value
// and short strings use a multiplicative loop; spread mixes both afterwards.
// Everything else, including named types of other kinds, uses the runtime
// hasher of map[K]struct{}.
func defaultHasher[K comparable]() HashFunc {
	kType := reflect.TypeFor[K]()
	if kType == nil {
		return defaultHasherUsingBuiltIn[K]()
	}
	switch kType.Kind() {
	case reflect.Uint, reflect.Int, reflect.Uintptr:
		return hashUintptr
	case reflect.Int64, reflect.Uint64:
		if unsafe.Sizeof(uintptr(0)) == 8 {
			return hashUint64
		}
		return hashUint64On32Bit
	case reflect.Int32, reflect.Uint32:
		return hashUint32
	case reflect.Int16, reflect.Uint16:
		return hashUint16
	case reflect.Int8, reflect.Uint8:
		return hashUint8
	case reflect.String:
		return hashString
	default:
		return defaultHasherUsingBuiltIn[K]()
	}
}

//go:nosplit
func hashUintptr(ptr unsafe.Pointer, _ uintptr) uintptr {
	return *(*uintptr)(ptr)
}

//go:nosplit
func hashUint64On32Bit(ptr unsafe.Pointer, _ uintptr) uintptr {
	v := *(*uint64)(ptr)
	return uintptr(v) ^ uintptr(v>>32)
}

//go:nosplit
func hashUint64(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint64)(ptr))
}

//go:nosplit
func hashUint32(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint32)(ptr))
}

//go:nosplit
func hashUint16(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint16)(ptr))
}

//go:nosplit
func hashUint8(ptr unsafe.Pointer, _ uintptr) uintptr {
	return uintptr(*(*uint8)(ptr))
}

// shortString is the longest string hashed inline.
const shortString = 12

//go:nosplit
func hashString(ptr unsafe.Pointer, seed uintptr) uintptr {
	s := *(*string)(ptr)
	if len(s) > shortString {
		return builtInStringHasher(ptr, seed)
	}
	h := seed
	for i := 0; i < len(s); i++ {
		h = h*31 + uintptr(s[i])
	}
	return h
}

var builtInStringHasher = defaultHasherUsingBuiltIn[string]()

// defaultHasherUsingBuiltIn returns the hasher the runtime uses for
// map[K]struct{}, read from the map type descriptor. The descriptor layout
// below mirrors internal/abi and has to be checked on Go upgrades.
func defaultHasherUsingBuiltIn[K comparable]() HashFunc {
	var m map[K]struct{}
	return iTypeOf(m).MapType().Hasher
}

type (
	iTFlag   uint8
	iKind    uint8
	iNameOff int32
)

type iTypeOff int32

type iType struct {
	Size_       uintptr
	PtrBytes    uintptr
	Hash        uint32
	TFlag       iTFlag
	Align_      uint8
	FieldAlign_ uint8
	Kind_       iKind
	Equal       func(unsafe.Pointer, unsafe.Pointer) bool
	GCData      *byte
	Str         iNameOff
	PtrToThis   iTypeOff
}

func (t *iType) MapType() *iMapType {
	return (*iMapType)(unsafe.Pointer(t))
}

type iMapType struct {
	iType
	Key    *iType
	Elem   *iType
	Group  *iType
	Hasher func(unsafe.Pointer, uintptr) uintptr
}

func iTypeOf(a any) *iType {
	eface := *(*iEmptyInterface)(unsafe.Pointer(&a))
	// Type descriptors are static or permanently reachable.
	return (*iType)(noescape(unsafe.Pointer(eface.Type)))
}

type iEmptyInterface struct {
	Type *iType
	Data unsafe.Pointer
}
