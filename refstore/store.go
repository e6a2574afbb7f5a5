package refstore

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/kilnforge/ecscore"
)

// Storage defines the interface a Store satisfies: entity creation and
// destruction, archetype resolution, structural-change locking, and the
// queue a locked Store defers mutations onto. It mirrors the shape the
// teacher repo exposes, generalized to ecscore's registries in place of
// a single table.Table per archetype.
type Storage interface {
	Entity(handle uint32) (Entity, error)
	NewEntities(int, ...Component) ([]Entity, error)
	NewOrExistingArchetype(components ...Component) (Archetype, error)
	EnqueueNewEntities(int, ...Component) error
	DestroyEntities(...Entity) error
	EnqueueDestroyEntities(...Entity) error
	RowIndexFor(Component) uint32
	Locked() bool
	AddLock(bit uint32)
	RemoveLock(bit uint32)
	Register(...Component)
	TransferEntities(target Storage, entities ...Entity) error
	Enqueue(EntityOperation)
	Archetypes() []Archetype
}

var _ Storage = &Store{}

// LockedStorageError is returned by any structural-change operation
// (entity creation/destruction, component add/remove, transfer) attempted
// while the Store holds at least one lock bit.
type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// location records where a live entity's row data lives: which archetype,
// which chunk within that archetype's hive, and which row within the
// chunk.
type location struct {
	archetypeHash uint32
	chunkFlat     uint32
	row           uint32
}

// Store is a concrete entity store built directly on ecscore's registries:
// a TypeRegistry for component descriptors, an ArchetypeRegistry for
// canonical component-set layouts, and an EntityPool for identity.
// Archetype membership changes (component add/remove) relocate an
// entity's row data between archetypeRuntimes. While the Store is locked
// the direct calls return LockedStorageError and the Enqueue* variants
// defer the change onto operationQueue, as the teacher's storage does for
// its table-based equivalent.
type Store struct {
	typeRegistry      *ecscore.TypeRegistry
	archetypeRegistry *ecscore.ArchetypeRegistry
	entityPool        *ecscore.EntityPool

	archetypesByHash map[uint32]*archetypeRuntime
	archetypesByID   []*archetypeRuntime
	nextArchetypeID  uint32

	componentBits map[uint32]uint32
	nextBit       uint32

	locations map[uint32]location

	locks          mask.Mask256
	operationQueue EntityOperationsQueue
}

// NewStore returns an empty Store backed by typeRegistry. typeRegistry may
// be shared across multiple Stores; the archetype registry, entity pool,
// and row data below it are not.
func NewStore(typeRegistry *ecscore.TypeRegistry) *Store {
	return &Store{
		typeRegistry:      typeRegistry,
		archetypeRegistry: ecscore.NewArchetypeRegistry(),
		entityPool:        ecscore.NewEntityPool(),
		archetypesByHash:  make(map[uint32]*archetypeRuntime),
		componentBits:     make(map[uint32]uint32),
		locations:         make(map[uint32]location),
		operationQueue:    &entityOperationsQueue{},
	}
}

// Entity resolves a live handle back to an Entity, or an error if the
// handle has been freed or never existed.
func (s *Store) Entity(handle uint32) (Entity, error) {
	e := s.entityPool.Restore(handle)
	if !e.IsValid() {
		return nil, fmt.Errorf("entity handle %d does not refer to a live entity", handle)
	}
	loc, ok := s.locations[handle]
	if !ok {
		return nil, fmt.Errorf("entity handle %d has no location record", handle)
	}
	runtime := s.archetypesByHash[loc.archetypeHash]
	return &entity{handle: e, store: s, components: componentsOf(s, runtime)}, nil
}

// RowIndexFor returns the query-mask bit assigned to c, assigning one if
// c has never been seen by this Store.
func (s *Store) RowIndexFor(c Component) uint32 {
	if bit, ok := s.componentBits[c.ID()]; ok {
		return bit
	}
	bit := s.nextBit
	s.componentBits[c.ID()] = bit
	s.nextBit++
	return bit
}

// Register assigns query-mask bits to comps, a no-op for any component
// already seen.
func (s *Store) Register(comps ...Component) {
	for _, c := range comps {
		s.RowIndexFor(c)
	}
}

func (s *Store) maskFor(comps []Component) mask.Mask {
	var m mask.Mask
	for _, c := range comps {
		m.Mark(s.RowIndexFor(c))
	}
	return m
}

// NewOrExistingArchetype resolves the canonical archetype for components,
// creating its runtime bookkeeping (chunk pool, row capacity) the first
// time that component set is seen.
func (s *Store) NewOrExistingArchetype(components ...Component) (Archetype, error) {
	s.Register(components...)
	descriptors := make([]*ecscore.TypeDescriptor, len(components))
	for i, c := range components {
		descriptors[i] = c.Descriptor()
	}
	ref, err := s.archetypeRegistry.GetOrCreate(descriptors)
	if err != nil {
		return nil, err
	}
	if existing, ok := s.archetypesByHash[ref.Hash()]; ok {
		return existing, nil
	}
	runtime := newArchetypeRuntime(s.nextArchetypeID, ref, s.maskFor(components))
	s.nextArchetypeID++
	s.archetypesByHash[ref.Hash()] = runtime
	s.archetypesByID = append(s.archetypesByID, runtime)
	return runtime, nil
}

// NewEntities allocates n entities with the given components, placing
// each in the resolved archetype's tail chunk.
func (s *Store) NewEntities(n int, components ...Component) ([]Entity, error) {
	if s.Locked() {
		return nil, LockedStorageError{}
	}
	archetype, err := s.NewOrExistingArchetype(components...)
	if err != nil {
		return nil, err
	}
	runtime := archetype.(*archetypeRuntime)

	entities := make([]Entity, n)
	for i := 0; i < n; i++ {
		e := s.entityPool.Allocate(0)
		chunkFlat, row := runtime.append(e.Handle())
		s.locations[e.Handle()] = location{archetypeHash: runtime.ref.Hash(), chunkFlat: chunkFlat, row: row}
		entities[i] = &entity{handle: e, store: s, components: append([]Component(nil), components...)}
	}
	return entities, nil
}

// EnqueueNewEntities creates entities immediately, or queues their
// creation if the Store is currently locked.
func (s *Store) EnqueueNewEntities(count int, components ...Component) error {
	if !s.Locked() {
		_, err := s.NewEntities(count, components...)
		return err
	}
	s.operationQueue.Enqueue(NewEntityOperation{count: count, components: components})
	return nil
}

// DestroyEntities frees entities, reclaims their rows via swap-remove, and
// then invokes each entity's destroy callback, if one is set.
func (s *Store) DestroyEntities(entities ...Entity) error {
	if s.Locked() {
		return LockedStorageError{}
	}
	for _, en := range entities {
		if en == nil || !en.Valid() {
			continue
		}
		handle := en.Handle().Handle()
		loc, ok := s.locations[handle]
		if !ok {
			continue
		}
		runtime := s.archetypesByHash[loc.archetypeHash]
		movedHandle, moved := runtime.removeSwapLast(loc.chunkFlat, loc.row)
		if moved {
			s.locations[movedHandle] = location{archetypeHash: loc.archetypeHash, chunkFlat: loc.chunkFlat, row: loc.row}
		}
		delete(s.locations, handle)
		s.entityPool.Free(en.Handle())
		if e, ok := en.(*entity); ok && e.relationships.onDestroy != nil {
			e.relationships.onDestroy(en)
		}
	}
	return nil
}

// EnqueueDestroyEntities destroys entities immediately, or queues their
// destruction if the Store is currently locked.
func (s *Store) EnqueueDestroyEntities(entities ...Entity) error {
	if !s.Locked() {
		return s.DestroyEntities(entities...)
	}
	for _, en := range entities {
		s.operationQueue.Enqueue(DestroyEntityOperation{entity: en, recycled: en.Recycled()})
	}
	return nil
}

// TransferEntities moves entities from this Store into target, resolving
// or creating a matching archetype there and copying each row's component
// values across. Each entity gets a new identity from target's entity pool,
// and its handle in this Store is freed.
func (s *Store) TransferEntities(target Storage, entities ...Entity) error {
	if s.Locked() {
		return LockedStorageError{}
	}
	dst, ok := target.(*Store)
	if !ok {
		return fmt.Errorf("TransferEntities requires a *Store target")
	}
	for _, en := range entities {
		handle := en.Handle().Handle()
		loc, ok := s.locations[handle]
		if !ok {
			continue
		}
		srcRuntime := s.archetypesByHash[loc.archetypeHash]

		dstArchetype, err := dst.NewOrExistingArchetype(en.Components()...)
		if err != nil {
			return err
		}
		dstRuntime := dstArchetype.(*archetypeRuntime)

		dstIdentity := dst.entityPool.Allocate(en.Handle().Tag())
		dstChunkFlat, dstRow := dstRuntime.append(dstIdentity.Handle())
		srcRuntime.copyRowInto(dstRuntime, loc.chunkFlat, loc.row, dstChunkFlat, dstRow)

		movedHandle, moved := srcRuntime.removeSwapLast(loc.chunkFlat, loc.row)
		if moved {
			s.locations[movedHandle] = location{archetypeHash: loc.archetypeHash, chunkFlat: loc.chunkFlat, row: loc.row}
		}
		delete(s.locations, handle)
		s.entityPool.Free(en.Handle())

		dst.locations[dstIdentity.Handle()] = location{archetypeHash: dstRuntime.ref.Hash(), chunkFlat: dstChunkFlat, row: dstRow}
		en.(*entity).store = dst
		en.(*entity).handle = dstIdentity
	}
	return nil
}

// Locked reports whether any structural-change lock bit is currently set.
func (s *Store) Locked() bool {
	return !s.locks.IsEmpty()
}

// AddLock sets a structural-change lock bit. While any bit is set,
// NewEntities/DestroyEntities/TransferEntities/component mutation return
// LockedStorageError, and their Enqueue variants queue the change until
// every bit is cleared.
func (s *Store) AddLock(bit uint32) {
	s.locks.Mark(bit)
}

// RemoveLock clears a lock bit and, once every bit is clear, drains the
// operation queue.
func (s *Store) RemoveLock(bit uint32) {
	s.locks.Unmark(bit)
	if s.locks.IsEmpty() {
		if err := s.operationQueue.ProcessAll(s); err != nil {
			panic(bark.AddTrace(err))
		}
	}
}

// Enqueue adds an operation to the Store's deferred-operation queue.
func (s *Store) Enqueue(op EntityOperation) {
	s.operationQueue.Enqueue(op)
}

// Archetypes returns every archetype runtime this Store has created.
func (s *Store) Archetypes() []Archetype {
	out := make([]Archetype, len(s.archetypesByID))
	for i, a := range s.archetypesByID {
		out[i] = a
	}
	return out
}

func componentsOf(s *Store, runtime *archetypeRuntime) []Component {
	if runtime == nil {
		return nil
	}
	out := make([]Component, len(runtime.ref.ComponentTypes()))
	for i, td := range runtime.ref.ComponentTypes() {
		out[i] = component{descriptor: td}
	}
	return out
}
