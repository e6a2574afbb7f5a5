package ecscore

import "testing"

func TestSolveGroupLayoutSingleMember(t *testing.T) {
	member := &TypeDescriptor{Name: "float64x2", Size: 16, Alignment: 8}
	capacity, offsets := solveGroupLayout([]*TypeDescriptor{member}, ChunkSize)

	if capacity == 0 {
		t.Fatalf("solveGroupLayout returned zero capacity for a small member")
	}
	if len(offsets) != 1 {
		t.Fatalf("len(offsets) = %d, want 1", len(offsets))
	}
	if offsets[0] != chunkHeaderSize {
		t.Errorf("offsets[0] = %d, want %d", offsets[0], chunkHeaderSize)
	}

	used := offsets[0] + member.Size*capacity
	if used > ChunkSize {
		t.Errorf("solved layout overflows chunk: used=%d chunkSize=%d", used, ChunkSize)
	}
}

func TestSolveGroupLayoutMultipleMembersFitAndAlign(t *testing.T) {
	members := []*TypeDescriptor{
		{Name: "int32", Size: 4, Alignment: 4},
		{Name: "float64", Size: 8, Alignment: 8},
		{Name: "byte", Size: 1, Alignment: 1},
	}
	capacity, offsets := solveGroupLayout(members, ChunkSize)
	if capacity == 0 {
		t.Fatalf("solveGroupLayout returned zero capacity")
	}

	cursor := uint32(chunkHeaderSize)
	for i, m := range members {
		aligned := AlignUp(cursor, m.Alignment)
		if offsets[i] != aligned {
			t.Errorf("offsets[%d] = %d, want %d", i, offsets[i], aligned)
		}
		cursor = aligned + m.Size*capacity
	}
	if cursor > ChunkSize {
		t.Errorf("solved layout overflows chunk: end=%d chunkSize=%d", cursor, ChunkSize)
	}
}

func TestSolveGroupLayoutOversizedMemberDegradesToZeroCapacity(t *testing.T) {
	huge := &TypeDescriptor{Name: "huge", Size: ChunkSize * 2, Alignment: 8}
	capacity, _ := solveGroupLayout([]*TypeDescriptor{huge}, ChunkSize)
	if capacity != 0 {
		t.Errorf("capacity = %d, want 0 for an oversized member", capacity)
	}
}

func TestSolveGroupLayoutEmptyMembers(t *testing.T) {
	capacity, offsets := solveGroupLayout(nil, ChunkSize)
	if capacity != 0 || offsets != nil {
		t.Errorf("solveGroupLayout(nil) = (%d, %v), want (0, nil)", capacity, offsets)
	}
}

func TestChunkHeaderRoundTrip(t *testing.T) {
	var c Chunk
	h := c.Header()
	h.ArchetypeHash = 0xABCDEF01
	h.ElementCount = 7
	h.ChunkNumber = 3

	reread := c.Header()
	if reread.ArchetypeHash != 0xABCDEF01 || reread.ElementCount != 7 || reread.ChunkNumber != 3 {
		t.Errorf("Header() did not round-trip: %+v", reread)
	}
}

func TestChunkColumnBytesLength(t *testing.T) {
	var c Chunk
	col := c.ColumnBytes(chunkHeaderSize, 8, 10)
	if len(col) != 80 {
		t.Errorf("len(ColumnBytes) = %d, want 80", len(col))
	}
}
