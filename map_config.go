package hashlink

import (
	"unsafe"
)

// MapConfig defines configurable options for LinkedMap, LinkedSet and LRU
// initialization.
type MapConfig struct {
	// keyHash specifies a custom hash function for keys.
	// If nil, the built-in hash function will be used.
	keyHash HashFunc

	// capacity provides an estimate of the expected number of entries.
	// The hash index and the slot arena are pre-allocated to hold that many
	// entries without growing.
	// If zero or negative, nothing is pre-allocated.
	capacity int

	// seed is mixed into every key hash. A random seed is drawn when
	// seedSet is false.
	seed    uintptr
	seedSet bool
}

// WithCapacity configures a new instance with room for cap entries.
// If cap is zero or negative, the value is ignored.
func WithCapacity(cap int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.capacity = cap
	}
}

// WithSeed fixes the hash seed instead of drawing a random one.
// Two maps built with the same hasher and seed produce identical hashes,
// which lets HashKey results be shared between them.
func WithSeed(seed uintptr) func(*MapConfig) {
	return func(c *MapConfig) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithKeyHasher sets a custom key hashing function.
// Keys that compare equal must hash equally.
//
// Usage:
//
//	// Case-insensitive keys still need equal keys to be ==, so fold first
//	m := NewLinkedMap[string, int](WithKeyHasher(myStringHasher))
func WithKeyHasher[K comparable](
	keyHash func(key K, seed uintptr) uintptr,
) func(*MapConfig) {
	return func(c *MapConfig) {
		if keyHash != nil {
			c.keyHash = func(pointer unsafe.Pointer, u uintptr) uintptr {
				return keyHash(*(*K)(pointer), u)
			}
		}
	}
}

// WithKeyHasherUnsafe sets a hasher that receives a pointer to the stored
// key. hs must read the pointer as the map's key type.
func WithKeyHasherUnsafe(hs HashFunc) func(*MapConfig) {
	return func(c *MapConfig) {
		c.keyHash = hs
	}
}

// WithBuiltInHasher explicitly selects Go's built-in hasher for T instead of
// the specialised integer and short-string hashers.
//
// Usage:
//
//	m := NewLinkedMap[string, int](WithBuiltInHasher[string]())
func WithBuiltInHasher[T comparable]() func(*MapConfig) {
	return func(c *MapConfig) {
		c.keyHash = GetBuiltInHasher[T]()
	}
}

// GetBuiltInHasher returns the hasher Go maps use for T.
func GetBuiltInHasher[T comparable]() HashFunc {
	return defaultHasherUsingBuiltIn[T]()
}

// IHashFunc lets a key type hash itself. It is detected on the pointer
// receiver of K, wins over the default hasher, and loses to WithKeyHasher
// and WithKeyHasherUnsafe.
//
// Usage:
//
//	type UserID struct {
//		ID int64
//		Tenant string
//	}
//
//	func (u *UserID) HashFunc(seed uintptr) uintptr {
//		return uintptr(u.ID) ^ seed
//	}
type IHashFunc interface {
	HashFunc(seed uintptr) uintptr
}

// parseKeyInterface returns a HashFunc calling (*K).HashFunc, or nil.
func parseKeyInterface[K comparable]() (keyHash HashFunc) {
	var k *K
	if _, ok := any(k).(IHashFunc); ok {
		keyHash = func(ptr unsafe.Pointer, seed uintptr) uintptr {
			return any((*K)(ptr)).(IHashFunc).HashFunc(seed)
		}
	}
	return
}

func buildConfig(options []func(*MapConfig)) MapConfig {
	var cfg MapConfig
	for _, o := range options {
		o(noEscape(&cfg))
	}
	return cfg
}
