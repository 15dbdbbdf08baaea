//go:build !hashlink_embedded_hash

package opt

const EmbeddedHash_ = false

// SlotHash_ is embedded in every slot of a LinkedMap. Without the
// hashlink_embedded_hash tag it is empty and key hashes are recomputed
// on rehash and on PopFront/PopBack.
type SlotHash_ struct{}

//go:nosplit
func (h *SlotHash_) GetHash() uintptr {
	return 0
}

//go:nosplit
func (h *SlotHash_) SetHash(_ uintptr) {
}
