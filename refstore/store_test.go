package refstore

import (
	"testing"
)

// TestArchetypeCreation tests the creation and reuse of archetypes
func TestArchetypeCreation(t *testing.T) {
	_, posComp, velComp, healthComp := newTestStore()

	tests := []struct {
		name                string
		firstComponents     []Component
		secondComponents    []Component
		expectSameArchetype bool
	}{
		{
			name:                "Identical components",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{posComp, velComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different order",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{velComp, posComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{velComp},
			expectSameArchetype: false,
		},
		{
			name:                "Subset components",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{posComp},
			expectSameArchetype: false,
		},
		{
			name:                "Superset components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{posComp, velComp, healthComp},
			expectSameArchetype: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _, _ := newTestStore()

			archetype1, err := store.NewOrExistingArchetype(tt.firstComponents...)
			if err != nil {
				t.Fatalf("Failed to create first archetype: %v", err)
			}

			archetype2, err := store.NewOrExistingArchetype(tt.secondComponents...)
			if err != nil {
				t.Fatalf("Failed to create second archetype: %v", err)
			}

			sameArchetype := archetype1.ID() == archetype2.ID()
			if sameArchetype != tt.expectSameArchetype {
				t.Errorf("Archetypes same: %v, expected: %v", sameArchetype, tt.expectSameArchetype)
			}
		})
	}
}

// TestEntityDestruction tests destroying entities
func TestEntityDestruction(t *testing.T) {
	store, posComp, _, _ := newTestStore()

	entities, err := store.NewEntities(10, posComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	err = store.DestroyEntities(entities[0], entities[2], entities[4], entities[6], entities[8])
	if err != nil {
		t.Fatalf("Failed to destroy entities: %v", err)
	}

	q := NewQuery()
	queryNode := q.And(posComp)
	cursor := newCursor(queryNode, store)

	count := 0
	for cursor.Next() {
		count++
	}

	if count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}
}

// TestStorageLocking tests the storage locking mechanism
func TestStorageLocking(t *testing.T) {
	tests := []struct {
		name      string
		lockBits  []uint32
		unlockIdx int
		checks    []bool
	}{
		{
			name:      "Single lock",
			lockBits:  []uint32{1},
			unlockIdx: 0,
			checks:    []bool{true, false},
		},
		{
			name:      "Multiple locks",
			lockBits:  []uint32{1, 2, 3},
			unlockIdx: 1,
			checks:    []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, posComp, _, _ := newTestStore()

			for _, bit := range tt.lockBits {
				store.AddLock(bit)
			}

			if store.Locked() != tt.checks[0] {
				t.Errorf("Initial lock state: %v, want %v", store.Locked(), tt.checks[0])
			}

			err := store.EnqueueNewEntities(5, posComp)
			if err != nil {
				t.Fatalf("EnqueueNewEntities failed: %v", err)
			}

			store.RemoveLock(tt.lockBits[tt.unlockIdx])

			if store.Locked() != tt.checks[1] {
				t.Errorf("Mid-operation lock state: %v, want %v", store.Locked(), tt.checks[1])
			}

			for i, bit := range tt.lockBits {
				if i != tt.unlockIdx {
					store.RemoveLock(bit)
				}
			}

			if store.Locked() != tt.checks[len(tt.checks)-1] {
				t.Errorf("Final lock state: %v, want %v", store.Locked(), tt.checks[len(tt.checks)-1])
			}

			q := NewQuery()
			queryNode := q.And(posComp)
			cursor := newCursor(queryNode, store)

			count := 0
			for cursor.Next() {
				count++
			}

			if count != 5 {
				t.Errorf("Entity count after unlocking: %d, want 5", count)
			}
		})
	}
}

// TestEntityTransfer tests transferring entities between storages
func TestEntityTransfer(t *testing.T) {
	store1, posComp, velComp, _ := newTestStore()
	store2 := NewStore(store1.typeRegistry)

	posEntities, err := store1.NewEntities(5, posComp)
	if err != nil {
		t.Fatalf("Failed to create position entities: %v", err)
	}

	posVelEntities, err := store1.NewEntities(5, posComp, velComp)
	if err != nil {
		t.Fatalf("Failed to create position+velocity entities: %v", err)
	}

	err = store1.TransferEntities(store2, posEntities[0], posEntities[1], posVelEntities[0])
	if err != nil {
		t.Fatalf("Failed to transfer entities: %v", err)
	}

	q1 := NewQuery()
	queryNode1 := q1.And(posComp)
	cursor1 := newCursor(queryNode1, store1)

	count1 := 0
	for cursor1.Next() {
		count1++
	}

	if count1 != 7 {
		t.Errorf("Entity count in store1: %d, want 7", count1)
	}

	q2 := NewQuery()
	queryNode2 := q2.And(posComp)
	cursor2 := newCursor(queryNode2, store2)

	count2 := 0
	for cursor2.Next() {
		count2++
	}

	if count2 != 3 {
		t.Errorf("Entity count in store2: %d, want 3", count2)
	}

	for _, en := range []Entity{posEntities[0], posEntities[1], posVelEntities[0]} {
		if en.Store() != store2 {
			t.Errorf("Entity has incorrect store after transfer")
		}
	}
}

// TestComponentAccessAfterTransfer tests component access after entity transfer
func TestComponentAccessAfterTransfer(t *testing.T) {
	store1, posComp, velComp, _ := newTestStore()
	store2 := NewStore(store1.typeRegistry)

	entities, err := store1.NewEntities(1, posComp)
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	en := entities[0]

	vel := Velocity{X: 1.0, Y: 2.0}
	err = en.AddComponentWithValue(velComp, vel)
	if err != nil {
		t.Fatalf("Failed to add velocity: %v", err)
	}

	pos := Position{X: 10.0, Y: 20.0}
	posPtr := posComp.GetFromEntity(en)
	*posPtr = pos

	err = store1.TransferEntities(store2, en)
	if err != nil {
		t.Fatalf("Failed to transfer entity: %v", err)
	}

	if en.Store() != store2 {
		t.Errorf("Entity has incorrect store after transfer")
	}

	posPtr = posComp.GetFromEntity(en)
	velPtr := velComp.GetFromEntity(en)

	if posPtr.X != pos.X || posPtr.Y != pos.Y {
		t.Errorf("Position after transfer = {%v, %v}, want {%v, %v}",
			posPtr.X, posPtr.Y, pos.X, pos.Y)
	}

	if velPtr.X != vel.X || velPtr.Y != vel.Y {
		t.Errorf("Velocity after transfer = {%v, %v}, want {%v, %v}",
			velPtr.X, velPtr.Y, vel.X, vel.Y)
	}

	posPtr.X = 30.0
	posPtr.Y = 40.0

	posPtr2 := posComp.GetFromEntity(en)
	if posPtr2.X != 30.0 || posPtr2.Y != 40.0 {
		t.Errorf("Updated position after transfer = {%v, %v}, want {30.0, 40.0}",
			posPtr2.X, posPtr2.Y)
	}
}
