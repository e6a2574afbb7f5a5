// Package refstore is a concrete consumer of ecscore: it builds entities,
// queries, and a cursor-based iteration model on top of ecscore's type
// registry, archetype registry, and chunk storage. ecscore itself knows
// nothing about entities or queries — refstore is where that external
// contract (spec.md §1) is exercised end to end.
package refstore

import (
	"unsafe"

	"github.com/kilnforge/ecscore"
)

// Component identifies a registered component type usable in a query or an
// entity's component list.
type Component interface {
	ID() uint32
	Descriptor() *ecscore.TypeDescriptor
}

// component is the concrete, comparable Component backing every
// AccessibleComponent[T]. Two components wrapping the same registered type
// compare equal, matching the teacher's table.ElementType identity
// semantics.
type component struct {
	descriptor *ecscore.TypeDescriptor
}

func (c component) ID() uint32                        { return c.descriptor.Hash().NameHash }
func (c component) Descriptor() *ecscore.TypeDescriptor { return c.descriptor }

// AccessibleComponent is a typed handle onto a registered component: it
// knows how to reach into a chunk's column for T, given either a cursor
// position or an entity.
type AccessibleComponent[T any] struct {
	component
}

// NewComponent registers T against registry (or reuses its existing
// descriptor) and returns a typed, query-usable handle for it.
func NewComponent[T any](registry *ecscore.TypeRegistry) AccessibleComponent[T] {
	return AccessibleComponent[T]{component{descriptor: ecscore.GetOrCreate[T](registry)}}
}

// columnFor returns the typed column slice for the component identified by
// hash within chunk, sized to the archetype's group capacity for that
// component, or false if archetype does not carry it.
func columnFor[T any](hash uint64, archetype ecscore.ArchetypeRef, chunk *ecscore.Chunk) ([]T, bool) {
	idx := archetype.IndexOf(hash)
	if idx < 0 {
		return nil, false
	}
	offset := archetype.ComponentOffset(idx)
	capacity := archetype.GroupCapacity(idx)
	if capacity == 0 {
		return nil, false
	}
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))
	raw := chunk.ColumnBytes(offset, elemSize, capacity)
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), capacity), true
}
