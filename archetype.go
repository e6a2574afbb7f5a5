package ecscore

import "sync/atomic"

// componentInfo is the per-component runtime record inside an archetype:
// its position in the archetype's sorted component list, its position
// within its component group, which group it belongs to, and its byte
// offset inside that group's chunk layout.
type componentInfo struct {
	IdxInArchetype uint32
	IdxInGroup     uint32
	GroupIdx       uint32
	ChunkOffset    uint32
}

// ComponentGroup co-locates every component sharing a group_id inside an
// archetype's chunks. GroupHash is the shared group_id; CapacityInChunk is
// the solved per-chunk row count for this group (§4.G step 3); Members
// holds indices into the owning archetype's Components slice.
type ComponentGroup struct {
	GroupHash       uint32
	CapacityInChunk uint32
	Members         []uint32
}

// archetype is pure data built exclusively by ArchetypeRegistry.initialize.
// There is no public mutation after construction; component_types is
// strictly sorted by TypeHash with no duplicates.
type archetype struct {
	hash           uint32
	registered     bool
	componentTypes []*TypeDescriptor
	components     []componentInfo
	groups         []ComponentGroup

	refs int32
}

// Hash returns the archetype's stable Murmur3 hash over its sorted
// component TypeHashes.
func (a *archetype) Hash() uint32 { return a.hash }

// ComponentTypes returns the archetype's sorted-by-hash component list.
func (a *archetype) ComponentTypes() []*TypeDescriptor {
	return a.componentTypes
}

// Groups returns the archetype's component groups, in group_id order.
func (a *archetype) Groups() []ComponentGroup {
	return a.groups
}

// ComponentOffset returns the chunk byte offset for the component at
// position idxInArchetype, or InvalidHandle if out of range.
func (a *archetype) ComponentOffset(idxInArchetype int) uint32 {
	if idxInArchetype < 0 || idxInArchetype >= len(a.components) {
		return InvalidHandle
	}
	return a.components[idxInArchetype].ChunkOffset
}

// GroupCapacity returns the chunk capacity for the group owning the
// component at position idxInArchetype, or 0 if out of range.
func (a *archetype) GroupCapacity(idxInArchetype int) uint32 {
	if idxInArchetype < 0 || idxInArchetype >= len(a.components) {
		return 0
	}
	group := a.components[idxInArchetype].GroupIdx
	if int(group) >= len(a.groups) {
		return 0
	}
	return a.groups[group].CapacityInChunk
}

// IndexOf returns the position of typeHash within ComponentTypes, or -1.
func (a *archetype) IndexOf(typeHash uint64) int {
	for i, t := range a.componentTypes {
		if t.Hash().Pack() == typeHash {
			return i
		}
	}
	return -1
}

// ArchetypeRef is a refcounted strong handle to an archetype descriptor.
// The archetype registry's index holds only a weak.Pointer to the
// underlying archetype (archetyperegistry.go); ArchetypeRef is what keeps
// it alive. Go has no shared_ptr, so the refcount is plain atomic
// bookkeeping rather than a library concern (see DESIGN.md).
type ArchetypeRef struct {
	a        *archetype
	registry *ArchetypeRegistry
}

// Hash returns the referenced archetype's hash.
func (r ArchetypeRef) Hash() uint32 { return r.a.Hash() }

// ComponentTypes returns the referenced archetype's sorted component list.
func (r ArchetypeRef) ComponentTypes() []*TypeDescriptor { return r.a.ComponentTypes() }

// Groups returns the referenced archetype's component groups.
func (r ArchetypeRef) Groups() []ComponentGroup { return r.a.Groups() }

// ComponentOffset returns the chunk byte offset for the given component
// position.
func (r ArchetypeRef) ComponentOffset(idxInArchetype int) uint32 {
	return r.a.ComponentOffset(idxInArchetype)
}

// GroupCapacity returns the chunk capacity for the group owning the given
// component position.
func (r ArchetypeRef) GroupCapacity(idxInArchetype int) uint32 {
	return r.a.GroupCapacity(idxInArchetype)
}

// IndexOf returns the position of typeHash within the archetype, or -1.
func (r ArchetypeRef) IndexOf(typeHash uint64) int {
	return r.a.IndexOf(typeHash)
}

// Acquire increments the refcount and returns a new, independently
// releasable ArchetypeRef to the same archetype.
func (r ArchetypeRef) Acquire() ArchetypeRef {
	atomic.AddInt32(&r.a.refs, 1)
	return r
}

// Release decrements the refcount. When it reaches zero the archetype
// unregisters itself from the registry's weak index (mirroring
// destroy_archetype/unregister_archetype in the original C++), so an
// archetype with no remaining strong references disappears from lookups.
func (r ArchetypeRef) Release() {
	if atomic.AddInt32(&r.a.refs, -1) == 0 {
		r.registry.unregister(r.a)
	}
}

// Valid reports whether this ArchetypeRef wraps a live archetype.
func (r ArchetypeRef) Valid() bool {
	return r.a != nil
}
