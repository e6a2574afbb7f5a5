package refstore

import (
	"github.com/TheBitDrifter/mask"
	"github.com/kilnforge/ecscore"
)

// Archetype is the public view of one component-set partition of a Store:
// its stable numeric ID and the ecscore archetype backing its layout.
type Archetype interface {
	ID() uint32
	Ref() ecscore.ArchetypeRef
	Len() int
	Mask() mask.Mask
}

func rowKey(chunkFlat, row uint32) uint64 {
	return uint64(chunkFlat)<<32 | uint64(row)
}

// archetypeRuntime is a Store's bookkeeping for one archetype: its chunk
// pool (a Hive[ecscore.Chunk], so a chunk's address never moves once
// allocated), the row capacity every chunk in the pool shares, and a
// reverse index from (chunk, row) back to the owning entity's handle so a
// swap-remove can tell the Store which entity's location record to patch.
type archetypeRuntime struct {
	id            uint32
	ref           ecscore.ArchetypeRef
	componentMask mask.Mask
	chunks        *ecscore.Hive[ecscore.Chunk]
	chunkOrder    []uint32
	rowCapacity   uint32
	count         int
	rowOwner      map[uint64]uint32
}

func newArchetypeRuntime(id uint32, ref ecscore.ArchetypeRef, componentMask mask.Mask) *archetypeRuntime {
	var rowCapacity uint32 = ^uint32(0)
	for _, g := range ref.Groups() {
		if g.CapacityInChunk < rowCapacity {
			rowCapacity = g.CapacityInChunk
		}
	}
	if len(ref.Groups()) == 0 {
		rowCapacity = 0
	}
	return &archetypeRuntime{
		id:            id,
		ref:           ref,
		componentMask: componentMask,
		chunks:        ecscore.NewHive[ecscore.Chunk](),
		rowCapacity:   rowCapacity,
		rowOwner:      make(map[uint64]uint32),
	}
}

func (a *archetypeRuntime) ID() uint32               { return a.id }
func (a *archetypeRuntime) Ref() ecscore.ArchetypeRef { return a.ref }
func (a *archetypeRuntime) Len() int                  { return a.count }
func (a *archetypeRuntime) Mask() mask.Mask           { return a.componentMask }

// tailChunk returns the current chunk entities are appended to, allocating
// a new one from the hive when the tail is full or none exists yet.
func (a *archetypeRuntime) tailChunk() (flat uint32, chunk *ecscore.Chunk) {
	if n := len(a.chunkOrder); n > 0 {
		flat = a.chunkOrder[n-1]
		chunk = a.chunks.Get(flat)
		if chunk.Header().ElementCount < a.rowCapacity {
			return flat, chunk
		}
	}
	flat, chunk = a.chunks.Construct()
	chunk.Header().ArchetypeHash = a.ref.Hash()
	chunk.Header().ChunkNumber = uint32(len(a.chunkOrder))
	a.chunkOrder = append(a.chunkOrder, flat)
	return flat, chunk
}

// append reserves the next free row in the tail chunk for handle, zeroes
// that row in every component column, and returns its location.
func (a *archetypeRuntime) append(handle uint32) (chunkFlat uint32, row uint32) {
	flat, chunk := a.tailChunk()
	row = chunk.Header().ElementCount
	for idx, ct := range a.ref.ComponentTypes() {
		col := chunk.ColumnBytes(a.ref.ComponentOffset(idx), ct.Size, a.ref.GroupCapacity(idx))
		clear(col[row*ct.Size : (row+1)*ct.Size])
	}
	chunk.Header().ElementCount++
	a.count++
	a.rowOwner[rowKey(flat, row)] = handle
	return flat, row
}

// copyRowInto copies, for every component type that both a and dst carry,
// the value at (srcFlat, srcRow) in a's chunk pool into (dstFlat, dstRow)
// in dst's chunk pool. Used when adding or removing a component, or a
// transfer between Stores, moves an entity into a freshly appended row of
// another archetype's chunk.
func (a *archetypeRuntime) copyRowInto(dst *archetypeRuntime, srcFlat, srcRow, dstFlat, dstRow uint32) {
	srcChunk := a.chunks.Get(srcFlat)
	dstChunk := dst.chunks.Get(dstFlat)
	for _, ct := range dst.ref.ComponentTypes() {
		hash := ct.Hash().Pack()
		srcIdx := a.ref.IndexOf(hash)
		if srcIdx < 0 {
			continue
		}
		dstIdx := dst.ref.IndexOf(hash)
		srcOffset := a.ref.ComponentOffset(srcIdx)
		srcCapacity := a.ref.GroupCapacity(srcIdx)
		dstOffset := dst.ref.ComponentOffset(dstIdx)
		dstCapacity := dst.ref.GroupCapacity(dstIdx)
		elemSize := ct.Size

		srcCol := srcChunk.ColumnBytes(srcOffset, elemSize, srcCapacity)
		dstCol := dstChunk.ColumnBytes(dstOffset, elemSize, dstCapacity)
		copy(dstCol[dstRow*elemSize:(dstRow+1)*elemSize], srcCol[srcRow*elemSize:(srcRow+1)*elemSize])
	}
}

// removeSwapLast removes the row at (chunkFlat, row) by moving the last
// row of the last chunk into its place, then shrinking or freeing that
// chunk. It returns the handle of whichever entity was relocated and
// whether a relocation actually happened (false when the removed row was
// already the last one).
func (a *archetypeRuntime) removeSwapLast(chunkFlat, row uint32) (movedHandle uint32, moved bool) {
	delete(a.rowOwner, rowKey(chunkFlat, row))

	lastIdx := len(a.chunkOrder) - 1
	lastFlat := a.chunkOrder[lastIdx]
	lastChunk := a.chunks.Get(lastFlat)
	lastRow := lastChunk.Header().ElementCount - 1

	if lastFlat == chunkFlat && lastRow == row {
		a.shrinkTail(lastIdx, lastFlat, lastChunk)
		a.count--
		return 0, false
	}

	target := a.chunks.Get(chunkFlat)
	for _, ct := range a.ref.ComponentTypes() {
		hash := ct.Hash().Pack()
		idx := a.ref.IndexOf(hash)
		offset := a.ref.ComponentOffset(idx)
		capacity := a.ref.GroupCapacity(idx)
		elemSize := ct.Size
		srcCol := lastChunk.ColumnBytes(offset, elemSize, capacity)
		dstCol := target.ColumnBytes(offset, elemSize, capacity)
		copy(dstCol[row*elemSize:(row+1)*elemSize], srcCol[lastRow*elemSize:(lastRow+1)*elemSize])
	}

	movedHandle = a.rowOwner[rowKey(lastFlat, lastRow)]
	delete(a.rowOwner, rowKey(lastFlat, lastRow))
	a.rowOwner[rowKey(chunkFlat, row)] = movedHandle

	a.shrinkTail(lastIdx, lastFlat, lastChunk)
	a.count--
	return movedHandle, true
}

func (a *archetypeRuntime) shrinkTail(lastIdx int, lastFlat uint32, lastChunk *ecscore.Chunk) {
	lastChunk.Header().ElementCount--
	if lastChunk.Header().ElementCount == 0 && lastIdx > 0 {
		a.chunks.Destruct(lastFlat)
		a.chunkOrder = a.chunkOrder[:lastIdx]
	}
}
