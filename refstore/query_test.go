package refstore

import (
	"testing"
)

// TestQueryFiltering tests the basic query filtering capabilities
func TestQueryFiltering(t *testing.T) {
	_, posComp, velComp, healthComp := newTestStore()

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		queryType       string // "and", "or", "not", "complex"
		queryComponents []Component
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "and",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			queryType:       "or",
			queryComponents: []Component{posComp, velComp},
			expectedMatches: 30,
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			queryType:       "not",
			queryComponents: []Component{velComp},
			expectedMatches: 30,
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			queryType:       "complex",
			queryComponents: []Component{posComp, velComp, healthComp},
			expectedMatches: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, posComp, velComp, healthComp := newTestStore()

			for _, setup := range tt.entitySetups {
				_, err := store.NewEntities(setup.count, setup.components...)
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			q := NewQuery()
			var queryNode QueryNode

			switch tt.queryType {
			case "and":
				interfaceComponents := make([]interface{}, len(tt.queryComponents))
				for i, comp := range tt.queryComponents {
					interfaceComponents[i] = comp
				}
				queryNode = q.And(interfaceComponents...)
			case "or":
				interfaceComponents := make([]interface{}, len(tt.queryComponents))
				for i, comp := range tt.queryComponents {
					interfaceComponents[i] = comp
				}
				queryNode = q.Or(interfaceComponents...)
			case "not":
				interfaceComponents := make([]interface{}, len(tt.queryComponents))
				for i, comp := range tt.queryComponents {
					interfaceComponents[i] = comp
				}
				queryNode = q.Not(interfaceComponents...)
			case "complex":
				andQuery1 := q.And(posComp, velComp)
				andQuery2 := q.And(posComp, healthComp)
				queryNode = q.Or(andQuery1, andQuery2)
			}

			cursor := newCursor(queryNode, store)
			matchCount := 0
			for cursor.Next() {
				matchCount++
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests the cursor-based entity iteration
func TestQueryWithCursor(t *testing.T) {
	tests := []struct {
		name            string
		entityTypes     func(posComp, velComp Component) [][]Component
		queryWith       func(posComp, velComp, healthComp Component) []Component
		expectedCount   int
	}{
		{
			name: "Query with position",
			entityTypes: func(posComp, velComp Component) [][]Component {
				return [][]Component{{posComp}, {posComp, velComp}, {velComp}}
			},
			queryWith: func(posComp, velComp, healthComp Component) []Component {
				return []Component{posComp}
			},
			expectedCount: 20,
		},
		{
			name: "Query with position and velocity",
			entityTypes: func(posComp, velComp Component) [][]Component {
				return [][]Component{{posComp}, {posComp, velComp}, {velComp}}
			},
			queryWith: func(posComp, velComp, healthComp Component) []Component {
				return []Component{posComp, velComp}
			},
			expectedCount: 10,
		},
		{
			name: "Query with no matches",
			entityTypes: func(posComp, velComp Component) [][]Component {
				return [][]Component{{posComp}, {velComp}}
			},
			queryWith: func(posComp, velComp, healthComp Component) []Component {
				return []Component{healthComp}
			},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, posComp, velComp, healthComp := newTestStore()

			for _, componentSet := range tt.entityTypes(posComp, velComp) {
				_, err := store.NewEntities(10, componentSet...)
				if err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			queryComponents := tt.queryWith(posComp, velComp, healthComp)
			q := NewQuery()
			interfaceComponents := make([]interface{}, len(queryComponents))
			for i, comp := range queryComponents {
				interfaceComponents[i] = comp
			}
			queryNode := q.And(interfaceComponents...)

			cursor := newCursor(queryNode, store)
			count1 := 0
			for cursor.Next() {
				count1++
			}

			cursor = newCursor(queryNode, store)
			count2 := cursor.TotalMatched()

			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}

			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

// TestQueryComponentAccess tests accessing component data through queries
func TestQueryComponentAccess(t *testing.T) {
	store, posComp, velComp, _ := newTestStore()

	for i := 0; i < 10; i++ {
		pos := Position{X: float64(i), Y: float64(i * 2)}
		entities, err := store.NewEntities(1, posComp)
		if err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
		en := entities[0]

		posPtr := posComp.GetFromEntity(en)
		*posPtr = pos

		vel := Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2}
		err = en.AddComponentWithValue(velComp, vel)
		if err != nil {
			t.Fatalf("Failed to add velocity: %v", err)
		}
	}

	q := NewQuery()
	queryNode := q.And(interface{}(posComp), interface{}(velComp))
	cursor := newCursor(queryNode, store)

	for cursor.Next() {
		en, err := cursor.CurrentEntity()
		if err != nil {
			t.Fatalf("Failed to get current entity: %v", err)
		}

		pos := posComp.GetFromEntity(en)
		vel := velComp.GetFromEntity(en)

		pos.X += vel.X
		pos.Y += vel.Y
	}

	cursor = newCursor(queryNode, store)
	for cursor.Next() {
		en, err := cursor.CurrentEntity()
		if err != nil {
			t.Fatalf("Failed to get current entity: %v", err)
		}

		pos := posComp.GetFromEntity(en)
		vel := velComp.GetFromEntity(en)

		expectedX := pos.X - vel.X
		expectedY := pos.Y - vel.Y

		if !almostEqual(expectedX, vel.X*10, 0.0001) || !almostEqual(expectedY/2, vel.X*10, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X-vel.X, pos.Y-vel.Y, vel.X, vel.Y)
		}
	}
}

// Helper function for float comparisons
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
