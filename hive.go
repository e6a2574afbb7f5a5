package ecscore

import "unsafe"

// InitialHiveGroupCapacity is the slot count of a Hive's first group. Each
// subsequent group doubles the previous group's capacity, mirroring the
// original implementation's growth policy: early allocations are cheap,
// and a long-lived Hive's group count stays logarithmic in its high-water
// mark.
const InitialHiveGroupCapacity = 64

// hiveGroup is one fixed-capacity segment of a Hive. Once allocated, a
// group's slots never move, which is the stable-address guarantee Hive
// exists to provide: a pointer returned by Construct stays valid until the
// corresponding Destruct, even while later groups are appended.
type hiveGroup[T any] struct {
	slots []T
	alive *DynamicBitset
}

// Hive is a segmented, stable-address object pool. Freed slots are
// threaded onto an intrusive free list: the first 4 bytes of a freed
// slot's storage hold the flat index of the next free slot (or
// InvalidHandle if it is the last), so freeing never allocates.
type Hive[T any] struct {
	groups   []*hiveGroup[T]
	freeHead uint32
	count    int
}

// NewHive returns an empty Hive with no groups allocated yet; the first
// group is allocated lazily by the first Construct.
func NewHive[T any]() *Hive[T] {
	return &Hive[T]{freeHead: InvalidHandle}
}

func (h *Hive[T]) groupCapacity(groupIdx int) int {
	return InitialHiveGroupCapacity << uint(groupIdx)
}

// groupBase returns the flat index of group groupIdx's first slot.
func (h *Hive[T]) groupBase(groupIdx int) uint32 {
	base := 0
	for i := 0; i < groupIdx; i++ {
		base += h.groupCapacity(i)
	}
	return uint32(base)
}

func (h *Hive[T]) locate(flat uint32) (groupIdx int, offset int) {
	base := 0
	for i := range h.groups {
		cap := h.groupCapacity(i)
		if int(flat) < base+cap {
			return i, int(flat) - base
		}
		base += cap
	}
	return -1, -1
}

func (h *Hive[T]) growGroup() *hiveGroup[T] {
	idx := len(h.groups)
	cap := h.groupCapacity(idx)
	g := &hiveGroup[T]{
		slots: make([]T, cap),
		alive: NewDynamicBitset(cap),
	}
	h.groups = append(h.groups, g)

	base := h.groupBase(idx)
	for i := cap - 1; i >= 0; i-- {
		flat := base + uint32(i)
		h.writeNextFree(flat, h.freeHead)
		h.freeHead = flat
	}
	return g
}

// writeNextFree stores next into the first 4 bytes of the slot at flat,
// reinterpreting the slot's own backing storage. The slot must not be
// alive: this is only ever called on a slot that is on, or being pushed
// onto, the free list.
func (h *Hive[T]) writeNextFree(flat uint32, next uint32) {
	groupIdx, offset := h.locate(flat)
	g := h.groups[groupIdx]
	ptr := (*uint32)(unsafe.Pointer(&g.slots[offset]))
	*ptr = next
}

func (h *Hive[T]) readNextFree(flat uint32) uint32 {
	groupIdx, offset := h.locate(flat)
	g := h.groups[groupIdx]
	ptr := (*uint32)(unsafe.Pointer(&g.slots[offset]))
	return *ptr
}

// Construct allocates a slot, default-constructs it in place (Go's zero
// value stands in for the original's placement-new of a default T), marks
// it alive, and returns its flat index together with a pointer into the
// owning group's backing array. The pointer is stable: it is never
// invalidated by subsequent Construct/Destruct calls on other slots.
func (h *Hive[T]) Construct() (uint32, *T) {
	if h.freeHead == InvalidHandle {
		h.growGroup()
	}
	flat := h.freeHead
	groupIdx, offset := h.locate(flat)
	g := h.groups[groupIdx]
	h.freeHead = h.readNextFree(flat)

	var zero T
	g.slots[offset] = zero
	_ = g.alive.Set(offset)
	h.count++
	return flat, &g.slots[offset]
}

// Destruct releases the slot at flat back to the free list. Destructing an
// already-free slot returns ErrDoubleFree.
func (h *Hive[T]) Destruct(flat uint32) error {
	groupIdx, offset := h.locate(flat)
	if groupIdx < 0 {
		return ErrIndexOutOfRange
	}
	g := h.groups[groupIdx]
	alive, err := g.alive.Test(offset)
	if err != nil {
		return err
	}
	if !alive {
		return ErrDoubleFree
	}
	_ = g.alive.Reset(offset)
	var zero T
	g.slots[offset] = zero
	h.writeNextFree(flat, h.freeHead)
	h.freeHead = flat
	h.count--
	return nil
}

// Get returns a pointer to the slot at flat, or nil if flat is out of
// range or currently free.
func (h *Hive[T]) Get(flat uint32) *T {
	groupIdx, offset := h.locate(flat)
	if groupIdx < 0 {
		return nil
	}
	g := h.groups[groupIdx]
	alive, err := g.alive.Test(offset)
	if err != nil || !alive {
		return nil
	}
	return &g.slots[offset]
}

// Count returns the number of live (constructed, not yet destructed)
// slots.
func (h *Hive[T]) Count() int { return h.count }

// Each calls fn for every live slot, in flat-index order. fn must not
// Construct or Destruct on h.
func (h *Hive[T]) Each(fn func(flat uint32, value *T)) {
	base := uint32(0)
	for i, g := range h.groups {
		cap := h.groupCapacity(i)
		for offset := 0; offset < cap; offset++ {
			if alive, _ := g.alive.Test(offset); alive {
				fn(base+uint32(offset), &g.slots[offset])
			}
		}
		base += uint32(cap)
	}
}
