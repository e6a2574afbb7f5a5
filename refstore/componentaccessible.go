package refstore

// GetFromCursor retrieves a component value for the entity at the cursor's
// current position.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	chunk := cursor.currentArchetype.chunks.Get(cursor.currentChunkFlat)
	col, ok := columnFor[T](c.descriptor.Hash().Pack(), cursor.currentArchetype.ref, chunk)
	if !ok {
		return nil
	}
	row := cursor.entityIndex - 1
	return &col[row]
}

// GetFromCursorSafe safely retrieves a component value, checking if the
// component exists in the cursor's current archetype first.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the
// cursor's current position.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return cursor.currentArchetype.ref.IndexOf(c.descriptor.Hash().Pack()) >= 0
}

// GetFromEntity retrieves a component value for the specified entity.
func (c AccessibleComponent[T]) GetFromEntity(en Entity) *T {
	e, ok := en.(*entity)
	if !ok {
		return nil
	}
	loc, err := e.location()
	if err != nil {
		return nil
	}
	runtime := e.store.archetypesByHash[loc.archetypeHash]
	chunk := runtime.chunks.Get(loc.chunkFlat)
	col, ok := columnFor[T](c.descriptor.Hash().Pack(), runtime.ref, chunk)
	if !ok {
		return nil
	}
	return &col[loc.row]
}
