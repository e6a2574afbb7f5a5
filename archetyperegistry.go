package ecscore

import (
	"fmt"
	"sort"
	"weak"

	"github.com/kamstrup/intmap"
	"golang.org/x/sync/singleflight"
)

// ArchetypeRegistry canonicalizes archetype descriptors: any sorted set of
// component types maps to exactly one archetype, reachable either by its
// component set (GetOrCreate) or by its hash (Get). The index holds only
// weak references (weak.Pointer[archetype]); strong ownership lives in the
// ArchetypeRef values handed back to callers, so an archetype with no
// remaining strong references is pruned from the index lazily, on the next
// lookup miss or explicit Release.
type ArchetypeRegistry struct {
	mu    coopLock
	index *intmap.Map[uint32, weak.Pointer[archetype]]
	group singleflight.Group
}

// NewArchetypeRegistry returns an empty ArchetypeRegistry.
func NewArchetypeRegistry() *ArchetypeRegistry {
	return &ArchetypeRegistry{
		mu:    newCoopLock(),
		index: intmap.New[uint32, weak.Pointer[archetype]](64),
	}
}

// Get returns a strong reference to the archetype registered under hash,
// or the zero ArchetypeRef if absent or expired.
func (r *ArchetypeRegistry) Get(hash uint32) (ArchetypeRef, bool) {
	release := r.mu.lockBlocking()
	defer release()
	return r.getLocked(hash)
}

func (r *ArchetypeRegistry) getLocked(hash uint32) (ArchetypeRef, bool) {
	weakPtr, ok := r.index.Get(hash)
	if !ok {
		return ArchetypeRef{}, false
	}
	a := weakPtr.Value()
	if a == nil {
		r.index.Del(hash)
		return ArchetypeRef{}, false
	}
	ref := ArchetypeRef{a: a, registry: r}
	return ref.Acquire(), true
}

// GetOrCreate rejects an empty type set or any type carrying ClassNone,
// stable-sorts the remainder by TypeHash and drops repeated entries of the
// same TypeHash, computes the archetype hash over
// the sorted sequence, and returns the existing archetype for that hash or
// builds a new one. Concurrent calls for the same sorted set are coalesced
// through singleflight so only one goroutine ever runs initialize for a
// given hash.
func (r *ArchetypeRegistry) GetOrCreate(types []*TypeDescriptor) (ArchetypeRef, error) {
	if len(types) == 0 {
		return ArchetypeRef{}, &CoreError{Code: ErrInvalidArchetype, Err: fmt.Errorf("empty component set")}
	}
	sorted := make([]*TypeDescriptor, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Hash().Less(sorted[j].Hash())
	})
	unique := sorted[:0]
	for _, t := range sorted {
		if n := len(unique); n > 0 && unique[n-1].Hash() == t.Hash() {
			continue
		}
		unique = append(unique, t)
	}
	sorted = unique
	for _, t := range sorted {
		if t.Classification == ClassNone {
			return ArchetypeRef{}, &CoreError{Code: ErrInvalidArchetype, Err: fmt.Errorf("type %q is not a component", t.Name)}
		}
	}

	hash := archetypeHash(sorted)

	if ref, ok := r.Get(hash); ok {
		return ref, nil
	}

	sfKey := fmt.Sprintf("%d", hash)
	v, err, _ := r.group.Do(sfKey, func() (any, error) {
		release := r.mu.lockBlocking()
		if ref, ok := r.getLocked(hash); ok {
			release()
			return ref, nil
		}
		release()

		built := r.initialize(hash, sorted)

		release = r.mu.lockBlocking()
		defer release()
		if existing, ok := r.getLocked(hash); ok {
			return existing, nil
		}
		r.index.Put(hash, weak.Make(built))
		built.registered = true
		return ArchetypeRef{a: built, registry: r}.Acquire(), nil
	})
	if err != nil {
		return ArchetypeRef{}, err
	}
	return v.(ArchetypeRef), nil
}

// unregister removes a (now strong-reference-free) archetype from the
// weak index, mirroring destroy_archetype/unregister_archetype in the
// original implementation.
func (r *ArchetypeRegistry) unregister(a *archetype) {
	release := r.mu.lockBlocking()
	defer release()
	if weakPtr, ok := r.index.Get(a.hash); ok && weakPtr.Value() == a {
		r.index.Del(a.hash)
	}
	a.registered = false
}

// Include forms the sorted merge of archetype's component types with
// extras, de-duplicating by TypeHash (an extra already present is a
// no-op) while preserving extras' relative order among themselves, then
// calls GetOrCreate on the merge. positions maps each entry of extras to
// its index in the resulting archetype, so a caller can place newly-added
// component values without a second lookup.
func (r *ArchetypeRegistry) Include(archetype ArchetypeRef, extras []*TypeDescriptor) (result ArchetypeRef, positions []int, err error) {
	base := archetype.ComponentTypes()
	merged := make([]*TypeDescriptor, 0, len(base)+len(extras))
	merged = append(merged, base...)

	present := make(map[uint64]bool, len(base))
	for _, t := range base {
		present[t.Hash().Pack()] = true
	}

	for _, t := range extras {
		if !present[t.Hash().Pack()] {
			present[t.Hash().Pack()] = true
			merged = append(merged, t)
		}
	}

	result, err = r.GetOrCreate(merged)
	if err != nil {
		return ArchetypeRef{}, nil, err
	}

	positions = make([]int, len(extras))
	for i, t := range extras {
		positions[i] = result.IndexOf(t.Hash().Pack())
	}
	return result, positions, nil
}

// Exclude forms the set-difference of archetype's component types and
// removals (by TypeHash; a removal not present is silently tolerated),
// then calls GetOrCreate on the remainder. If nothing remains, Exclude
// returns the zero ArchetypeRef: an archetype with zero components is not
// representable.
func (r *ArchetypeRegistry) Exclude(archetype ArchetypeRef, removals []*TypeDescriptor) (ArchetypeRef, error) {
	drop := make(map[uint64]bool, len(removals))
	for _, t := range removals {
		drop[t.Hash().Pack()] = true
	}

	remainder := make([]*TypeDescriptor, 0, len(archetype.ComponentTypes()))
	for _, t := range archetype.ComponentTypes() {
		if !drop[t.Hash().Pack()] {
			remainder = append(remainder, t)
		}
	}

	if len(remainder) == 0 {
		return ArchetypeRef{}, nil
	}
	return r.GetOrCreate(remainder)
}

// archetypeHash computes the Murmur3 hash over the concatenated TypeHashes
// of sorted, in ascending-hash order.
func archetypeHash(sorted []*TypeDescriptor) uint32 {
	buf := make([]byte, 0, len(sorted)*8)
	for _, t := range sorted {
		packed := t.Hash().Pack()
		buf = append(buf,
			byte(packed), byte(packed>>8), byte(packed>>16), byte(packed>>24),
			byte(packed>>32), byte(packed>>40), byte(packed>>48), byte(packed>>56),
		)
	}
	return HashBytes(buf)
}

// initialize builds components[], groups[], and solves each group's chunk
// layout, per spec.md §4.G.
func (r *ArchetypeRegistry) initialize(hash uint32, sorted []*TypeDescriptor) *archetype {
	a := &archetype{
		hash:           hash,
		componentTypes: sorted,
		components:     make([]componentInfo, len(sorted)),
	}

	// 1. components[] in sorted order.
	for i := range sorted {
		a.components[i] = componentInfo{
			IdxInArchetype: uint32(i),
			IdxInGroup:     InvalidHandle,
			GroupIdx:       InvalidHandle,
		}
	}

	// 2. groups[]: one singleton group per component, merged by group_id.
	groups := make([]ComponentGroup, len(sorted))
	for i, t := range sorted {
		groups[i] = ComponentGroup{GroupHash: t.GroupID, Members: []uint32{uint32(i)}}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].GroupHash < groups[j].GroupHash })

	merged := groups[:0]
	for _, g := range groups {
		if n := len(merged); n > 0 && merged[n-1].GroupHash == g.GroupHash {
			merged[n-1].Members = append(merged[n-1].Members, g.Members...)
			continue
		}
		merged = append(merged, g)
	}
	a.groups = merged

	for groupIdx := range a.groups {
		for idxInGroup, memberIdx := range a.groups[groupIdx].Members {
			a.components[memberIdx].GroupIdx = uint32(groupIdx)
			a.components[memberIdx].IdxInGroup = uint32(idxInGroup)
		}
	}

	// 3. layout solving, per group, independent.
	for groupIdx := range a.groups {
		members := make([]*TypeDescriptor, len(a.groups[groupIdx].Members))
		for i, memberIdx := range a.groups[groupIdx].Members {
			members[i] = a.componentTypes[memberIdx]
		}
		capacity, offsets := solveGroupLayout(members, ChunkSize)
		a.groups[groupIdx].CapacityInChunk = capacity
		for i, memberIdx := range a.groups[groupIdx].Members {
			a.components[memberIdx].ChunkOffset = offsets[i]
		}
	}

	return a
}
