package ecscore

// EntityPool allocates and recycles Entity handles. A pool is single-owner:
// it holds no internal lock and callers are responsible for serializing
// access, exactly as spec.md's resource model requires for the hive and the
// entity pool alike.
type EntityPool struct {
	versions  []uint16
	allocated []bool
	freeList  []uint32
}

// NewEntityPool returns an empty EntityPool.
func NewEntityPool() *EntityPool {
	return &EntityPool{}
}

// Allocate returns a valid Entity with an unused (handle, version) pair. A
// freed handle is preferred and reused with its version already bumped on
// the Free path; otherwise a new dense handle is minted.
func (p *EntityPool) Allocate(tag uint16) Entity {
	if n := len(p.freeList); n > 0 {
		handle := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.allocated[handle] = true
		return ComposeEntity(handle, tag, p.versions[handle])
	}

	handle := uint32(len(p.versions))
	p.versions = append(p.versions, 0)
	p.allocated = append(p.allocated, true)
	return ComposeEntity(handle, tag, 0)
}

// Free marks e's handle slot as unallocated and bumps its version so any
// previously-issued Entity referencing that handle fails IsAlive. Freeing an
// unknown or already-free handle returns false and has no effect.
func (p *EntityPool) Free(e Entity) bool {
	handle := e.Handle()
	if !p.slotExists(handle) || !p.allocated[handle] {
		return false
	}
	p.allocated[handle] = false
	p.versions[handle]++
	p.freeList = append(p.freeList, handle)
	return true
}

// IsAlive reports whether e's handle is currently allocated with a matching
// version. An unknown handle returns false rather than erroring.
func (p *EntityPool) IsAlive(e Entity) bool {
	handle := e.Handle()
	if !p.slotExists(handle) || !p.allocated[handle] {
		return false
	}
	return p.versions[handle] == e.Version()
}

// Restore returns the handle and current version of the entity occupying
// handle, or InvalidEntity if the slot is free or unknown. The pool does not
// record tags, so the returned Entity's tag is always 0.
func (p *EntityPool) Restore(handle uint32) Entity {
	if !p.slotExists(handle) || !p.allocated[handle] {
		return InvalidEntity()
	}
	return ComposeEntity(handle, 0, p.versions[handle])
}

func (p *EntityPool) slotExists(handle uint32) bool {
	return handle != InvalidHandle && int(handle) < len(p.versions)
}
