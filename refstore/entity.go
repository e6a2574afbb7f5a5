package refstore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unsafe"

	"github.com/kilnforge/ecscore"
)

var _ Entity = &entity{}

// EntityRelationError reports that child already has a parent and cannot
// take a second one.
type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) already has parent %v", e.child, e.parent)
}

// ComponentExistsError reports that Component is already present on the
// entity an Add was attempted against.
type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

// ComponentNotFoundError reports that Component is not present on the
// entity a Remove was attempted against.
type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// Entity is a live handle into a Store: it carries the ecscore.Entity
// identity, knows its own component set, and can trigger structural
// changes (AddComponent/RemoveComponent) that relocate its row data.
type Entity interface {
	Handle() ecscore.Entity
	Valid() bool
	Recycled() uint16
	Store() Storage
	SetStorage(Storage)

	SetParent(parent Entity, callback EntityDestroyCallback) error
	Parent() Entity
	SetDestroyCallback(EntityDestroyCallback) error

	AddComponent(Component) error
	AddComponentWithValue(Component, any) error
	RemoveComponent(Component) error

	EnqueueAddComponent(Component) error
	EnqueueAddComponentWithValue(Component, any) error
	EnqueueRemoveComponent(Component) error

	Components() []Component
	ComponentsAsString() string
}

// EntityDestroyCallback is invoked when an entity with a registered
// callback is destroyed.
type EntityDestroyCallback func(Entity)

type relationships struct {
	recycled  uint16
	parent    Entity
	onDestroy EntityDestroyCallback
}

type entity struct {
	handle        ecscore.Entity
	store         *Store
	components    []Component
	relationships relationships
}

func (e *entity) Handle() ecscore.Entity { return e.handle }
func (e *entity) Valid() bool            { return e.store.entityPool.IsAlive(e.handle) }
func (e *entity) Recycled() uint16       { return e.handle.Version() }
func (e *entity) Store() Storage         { return e.store }
func (e *entity) SetStorage(s Storage)   { e.store = s.(*Store) }
func (e *entity) Components() []Component { return e.components }

// SetParent records parent as e's parent and installs callback as parent's
// destroy callback, so callback fires when parent is destroyed. Parent
// reports the parent only while it has not been recycled since.
func (e *entity) SetParent(parent Entity, callback EntityDestroyCallback) error {
	if e.relationships.parent != nil {
		return EntityRelationError{child: e, parent: e.relationships.parent}
	}
	e.relationships.parent = parent
	e.relationships.recycled = parent.Recycled()
	return parent.SetDestroyCallback(callback)
}

func (e *entity) Parent() Entity {
	if e.relationships.parent == nil {
		return nil
	}
	if e.relationships.parent.Recycled() != e.relationships.recycled {
		return nil
	}
	return e.relationships.parent
}

func (e *entity) SetDestroyCallback(callback EntityDestroyCallback) error {
	e.relationships.onDestroy = callback
	return nil
}

func (e *entity) hasComponent(c Component) bool {
	for _, existing := range e.components {
		if existing.ID() == c.ID() {
			return true
		}
	}
	return false
}

// location returns e's current row location, or an error if e has no
// location record (already destroyed).
func (e *entity) location() (location, error) {
	loc, ok := e.store.locations[e.handle.Handle()]
	if !ok {
		return location{}, fmt.Errorf("entity %v has no location in its store", e.handle)
	}
	return loc, nil
}

// AddComponent relocates e into the archetype formed by including c in
// its current component set. c's column is left zero-valued.
func (e *entity) AddComponent(c Component) error {
	return e.addComponent(c, nil)
}

// AddComponentWithValue is AddComponent followed by writing value into
// the new column.
func (e *entity) AddComponentWithValue(c Component, value any) error {
	return e.addComponent(c, value)
}

func (e *entity) addComponent(c Component, value any) error {
	if e.store.Locked() {
		return LockedStorageError{}
	}
	if e.hasComponent(c) {
		return ComponentExistsError{Component: c}
	}

	loc, err := e.location()
	if err != nil {
		return err
	}
	srcRuntime := e.store.archetypesByHash[loc.archetypeHash]

	_, positions, err := e.store.archetypeRegistry.Include(srcRuntime.ref, []*ecscore.TypeDescriptor{c.Descriptor()})
	if err != nil {
		return err
	}

	newComponents := append(append([]Component(nil), e.components...), c)
	dstArchetype, err := e.store.NewOrExistingArchetype(newComponents...)
	if err != nil {
		return err
	}
	dstRuntime := dstArchetype.(*archetypeRuntime)

	dstChunkFlat, dstRow := dstRuntime.append(e.handle.Handle())
	srcRuntime.copyRowInto(dstRuntime, loc.chunkFlat, loc.row, dstChunkFlat, dstRow)

	if value != nil {
		idx := positions[0]
		if idx < 0 {
			return fmt.Errorf("component %T not present in resulting archetype", c)
		}
		if err := writeColumnValue(dstRuntime.ref, e.store.chunkOf(dstRuntime, dstChunkFlat), idx, dstRow, value); err != nil {
			return err
		}
	}

	movedHandle, moved := srcRuntime.removeSwapLast(loc.chunkFlat, loc.row)
	if moved {
		e.store.locations[movedHandle] = location{archetypeHash: loc.archetypeHash, chunkFlat: loc.chunkFlat, row: loc.row}
	}

	e.store.locations[e.handle.Handle()] = location{archetypeHash: dstRuntime.ref.Hash(), chunkFlat: dstChunkFlat, row: dstRow}
	e.components = newComponents
	return nil
}

// RemoveComponent relocates e into the archetype formed by excluding c.
func (e *entity) RemoveComponent(c Component) error {
	if e.store.Locked() {
		return LockedStorageError{}
	}
	if !e.hasComponent(c) {
		return ComponentNotFoundError{Component: c}
	}

	loc, err := e.location()
	if err != nil {
		return err
	}
	srcRuntime := e.store.archetypesByHash[loc.archetypeHash]

	newComponents := make([]Component, 0, len(e.components)-1)
	for _, existing := range e.components {
		if existing.ID() != c.ID() {
			newComponents = append(newComponents, existing)
		}
	}

	dstArchetype, err := e.store.NewOrExistingArchetype(newComponents...)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	dstRuntime := dstArchetype.(*archetypeRuntime)

	dstChunkFlat, dstRow := dstRuntime.append(e.handle.Handle())
	srcRuntime.copyRowInto(dstRuntime, loc.chunkFlat, loc.row, dstChunkFlat, dstRow)

	movedHandle, moved := srcRuntime.removeSwapLast(loc.chunkFlat, loc.row)
	if moved {
		e.store.locations[movedHandle] = location{archetypeHash: loc.archetypeHash, chunkFlat: loc.chunkFlat, row: loc.row}
	}

	e.store.locations[e.handle.Handle()] = location{archetypeHash: dstRuntime.ref.Hash(), chunkFlat: dstChunkFlat, row: dstRow}
	e.components = newComponents
	return nil
}

func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.store.Locked() {
		return e.AddComponent(c)
	}
	e.store.Enqueue(AddComponentOperation{entity: e, recycled: e.Recycled(), component: c, storage: e.store})
	return nil
}

func (e *entity) EnqueueAddComponentWithValue(c Component, val any) error {
	if !e.store.Locked() {
		return e.AddComponentWithValue(c, val)
	}
	e.store.Enqueue(AddComponentOperation{entity: e, recycled: e.Recycled(), component: c, value: val, storage: e.store})
	return nil
}

func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.store.Locked() {
		return e.RemoveComponent(c)
	}
	e.store.Enqueue(RemoveComponentOperation{entity: e, recycled: e.Recycled(), component: c, storage: e.store})
	return nil
}

// ComponentsAsString renders e's component set as a sorted, bracketed
// list of type names, for diagnostics.
func (e *entity) ComponentsAsString() string {
	if len(e.components) == 0 {
		return "[]"
	}
	names := make([]string, len(e.components))
	for i, c := range e.components {
		names[i] = c.Descriptor().Name
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}

// chunkOf exposes the chunk for a (runtime, flat) pair to entity.go without
// making archetypeRuntime's hive public.
func (s *Store) chunkOf(runtime *archetypeRuntime, flat uint32) *ecscore.Chunk {
	return runtime.chunks.Get(flat)
}

// writeColumnValue writes value, whose dynamic type must match the
// component at idxInArchetype's registered size, into row.
func writeColumnValue(ref ecscore.ArchetypeRef, chunk *ecscore.Chunk, idxInArchetype int, row uint32, value any) error {
	offset := ref.ComponentOffset(idxInArchetype)
	capacity := ref.GroupCapacity(idxInArchetype)
	elemSize := ref.ComponentTypes()[idxInArchetype].Size

	col := chunk.ColumnBytes(offset, elemSize, capacity)
	rv := reflect.ValueOf(value)
	if uint32(rv.Type().Size()) != elemSize {
		return fmt.Errorf("value of type %v does not match component size %d", rv.Type(), elemSize)
	}

	dst := unsafe.Pointer(&col[row*elemSize])
	reflect.NewAt(rv.Type(), dst).Elem().Set(rv)
	return nil
}
