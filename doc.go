/*
Package ecscore implements the runtime core of an archetype-based
Entity-Component-System data engine: type registration with layout
hashing, archetype canonicalization, chunked columnar storage, and a
stable-address object pool.

ecscore itself has no notion of queries, cursors, or entity mutation — it
only builds and canonicalizes the archetype graph and hands out the raw
chunk storage backing it. The refstore package demonstrates consuming
this core from a concrete store.

Core Concepts:

  - Entity: a packed handle/tag/version identifier with no storage of its
    own; see EntityPool for allocation.
  - TypeDescriptor: a component's registered name, size, alignment,
    lifecycle vtable, and field layout, identified by a TypeHash.
  - Archetype: a canonical, sorted set of component types, partitioned
    into component groups and laid out against fixed-size chunks.
  - Hive: a segmented pool handing out stable-address slots of T.

Basic Usage:

	typeRegistry := Factory.NewTypeRegistry()
	archetypeRegistry := Factory.NewArchetypeRegistry()

	position := FactoryNewComponentType[Position](typeRegistry)
	velocity := FactoryNewComponentType[Velocity](typeRegistry)

	archetype, err := archetypeRegistry.GetOrCreate([]*TypeDescriptor{position, velocity})
	if err != nil {
		// ...
	}
	defer archetype.Release()

	for i, c := range archetype.ComponentTypes() {
		offset := archetype.ComponentOffset(i)
		capacity := archetype.GroupCapacity(i)
		_ = c
		_ = offset
		_ = capacity
	}
*/
package ecscore
