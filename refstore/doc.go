/*
Package refstore provides an archetype-based Entity-Component-System (ECS)
storage layer built on top of ecscore's type registry, archetype registry,
and chunked hive storage.

Core Concepts:

  - Entity: a handle into a Store, backed by an ecscore.Entity identity.
  - Component: a typed accessor, registered once per ecscore.TypeRegistry.
  - Archetype: the set of entities sharing the same component set, stored
    as a run of fixed-capacity chunks.
  - Query: a boolean expression over component sets, evaluated against an
    archetype's component mask.

Basic Usage:

	registry := ecscore.NewTypeRegistry()
	store := refstore.NewStore(registry)

	position := refstore.NewComponent[Position](registry)
	velocity := refstore.NewComponent[Velocity](registry)

	entities, _ := store.NewEntities(100, position, velocity)

	query := refstore.NewQuery().And(position, velocity)
	cursor := refstore.NewCursor(query, store)

	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}
*/
package refstore
