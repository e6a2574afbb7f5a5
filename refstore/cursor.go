package refstore

import (
	"fmt"
	"iter"
)

// Ensure Cursor implements iCursor interface
var _ iCursor = &Cursor{}

// iCursor defines the interface for iterating over entities in storage
type iCursor interface {
	Entities() iter.Seq2[int, Entity]
	Next() bool
}

// cursorLockBit is the structural-change lock bit every Cursor holds for
// the duration of its iteration, so a callback driven by Entities cannot
// add/remove a component and invalidate the chunk the cursor is reading.
const cursorLockBit uint32 = 63

// Cursor provides iteration over filtered entities in storage, archetype by
// archetype and, within an archetype, chunk by chunk.
type Cursor struct {
	query   QueryNode
	storage Storage

	initialized    bool
	matched        []*archetypeRuntime
	archetypeIndex int
	chunkIndex     int
	entityIndex    int
	remaining      int

	currentArchetype *archetypeRuntime
	currentChunkFlat uint32
}

// newCursor creates a new cursor for the given query and storage
func newCursor(query QueryNode, storage Storage) *Cursor {
	return &Cursor{query: query, storage: storage}
}

// NewCursor creates a new cursor for the given query and storage.
func NewCursor(query QueryNode, storage Storage) *Cursor {
	return newCursor(query, storage)
}

// Next advances to the next entity and returns whether one exists
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

// advance moves to the next chunk, or the next archetype, with entities
func (c *Cursor) advance() bool {
	if !c.initialized {
		c.Initialize()
	}

	for c.archetypeIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archetypeIndex]
		for c.chunkIndex < len(c.currentArchetype.chunkOrder) {
			c.currentChunkFlat = c.currentArchetype.chunkOrder[c.chunkIndex]
			chunk := c.currentArchetype.chunks.Get(c.currentChunkFlat)
			c.remaining = int(chunk.Header().ElementCount)
			if c.entityIndex < c.remaining {
				c.entityIndex++
				return true
			}
			c.chunkIndex++
			c.entityIndex = 0
		}
		c.archetypeIndex++
		c.chunkIndex = 0
		c.entityIndex = 0
	}

	c.Reset()
	return false
}

// Entities returns an iterator sequence over entities matching the query
func (c *Cursor) Entities() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		c.Initialize()

		for c.archetypeIndex < len(c.matched) {
			c.currentArchetype = c.matched[c.archetypeIndex]
			for c.chunkIndex < len(c.currentArchetype.chunkOrder) {
				c.currentChunkFlat = c.currentArchetype.chunkOrder[c.chunkIndex]
				chunk := c.currentArchetype.chunks.Get(c.currentChunkFlat)
				c.remaining = int(chunk.Header().ElementCount)

				for c.entityIndex < c.remaining {
					row := c.entityIndex
					c.entityIndex++
					handle, ok := c.currentArchetype.rowOwner[rowKey(c.currentChunkFlat, uint32(row))]
					if !ok {
						continue
					}
					en, err := c.storage.Entity(handle)
					if err != nil {
						continue
					}
					if !yield(row, en) {
						c.Reset()
						return
					}
				}

				c.entityIndex = 0
				c.chunkIndex++
			}
			c.chunkIndex = 0
			c.archetypeIndex++
		}

		c.Reset()
	}
}

// Initialize sets up the cursor by finding matching archetypes
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}

	c.storage.AddLock(cursorLockBit)
	c.matched = nil

	for _, arch := range c.storage.Archetypes() {
		if c.query.Evaluate(arch, c.storage) {
			c.matched = append(c.matched, arch.(*archetypeRuntime))
		}
	}

	if len(c.matched) > 0 {
		c.archetypeIndex = 0
		c.currentArchetype = c.matched[0]
		if len(c.currentArchetype.chunkOrder) > 0 {
			c.currentChunkFlat = c.currentArchetype.chunkOrder[0]
			c.remaining = int(c.currentArchetype.chunks.Get(c.currentChunkFlat).Header().ElementCount)
		}
	}

	c.initialized = true
}

// Reset clears cursor state and releases the storage lock
func (c *Cursor) Reset() {
	c.archetypeIndex = 0
	c.chunkIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = nil
	c.initialized = false
	c.storage.RemoveLock(cursorLockBit)
}

// CurrentEntity returns the entity at the current cursor position
func (c *Cursor) CurrentEntity() (Entity, error) {
	row := uint32(c.entityIndex - 1)
	handle, ok := c.currentArchetype.rowOwner[rowKey(c.currentChunkFlat, row)]
	if !ok {
		return nil, fmt.Errorf("cursor position does not map to a live entity")
	}
	return c.storage.Entity(handle)
}

// EntityAtOffset returns an entity at the specified row offset from the
// current position, within the current chunk.
func (c *Cursor) EntityAtOffset(offset int) (Entity, error) {
	row := c.entityIndex - 1 + offset
	if row < 0 || row >= c.remaining {
		return nil, fmt.Errorf("offset %d out of range for current chunk", offset)
	}
	handle, ok := c.currentArchetype.rowOwner[rowKey(c.currentChunkFlat, uint32(row))]
	if !ok {
		return nil, fmt.Errorf("cursor position does not map to a live entity")
	}
	return c.storage.Entity(handle)
}

// EntityIndex returns the current entity index within the current chunk
func (c *Cursor) EntityIndex() int {
	return c.entityIndex
}

// RemainingInArchetype returns the number of entities left in the current chunk
func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched returns the total number of entities matching the query
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}

	total := 0
	for _, arch := range c.matched {
		total += arch.Len()
	}

	c.Reset()
	return total
}
