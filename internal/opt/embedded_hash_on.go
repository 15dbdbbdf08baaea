//go:build hashlink_embedded_hash

package opt

const EmbeddedHash_ = true

// SlotHash_ caches the full key hash inside every slot of a LinkedMap.
// Use: go build -tags=hashlink_embedded_hash
type SlotHash_ struct {
	Hash uintptr
}

//go:nosplit
func (h *SlotHash_) GetHash() uintptr {
	return h.Hash
}

//go:nosplit
func (h *SlotHash_) SetHash(v uintptr) {
	h.Hash = v
}
