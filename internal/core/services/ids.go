package services

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

// IDAllocator derives application IDs from native (type, index) pairs.
// The ID of a persisted record is known before the record is converted,
// so back-references written early point at the object produced later.
type IDAllocator struct {
	newID func() string
}

// NewIDAllocator creates an allocator that uses random UUIDs for
// records without a persisted index.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{newID: uuid.NewString}
}

// AllocateOrGet returns "Type:Index" for a persisted index and a fresh,
// never reused ID otherwise.
func (a *IDAllocator) AllocateOrGet(t domain.NativeType, index domain.Index) string {
	if !index.IsSet() {
		return a.newID()
	}
	return domain.NativeRef{Type: t, Index: index}.String()
}

// ForRef is AllocateOrGet for a reference.
func (a *IDAllocator) ForRef(ref domain.NativeRef) string {
	return a.AllocateOrGet(ref.Type, ref.Index)
}
