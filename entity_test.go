package ecscore

import "testing"

func TestComposeEntityRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		handle  uint32
		tag     uint16
		version uint16
	}{
		{"zero values", 0, 0, 0},
		{"typical", 42, 7, 3},
		{"max handle", 0xFFFFFFFE, 1, 1},
		{"max tag and version", 1, 0xFFFF, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ComposeEntity(tt.handle, tt.tag, tt.version)
			if e.Handle() != tt.handle {
				t.Errorf("Handle() = %d, want %d", e.Handle(), tt.handle)
			}
			if e.Tag() != tt.tag {
				t.Errorf("Tag() = %d, want %d", e.Tag(), tt.tag)
			}
			if e.Version() != tt.version {
				t.Errorf("Version() = %d, want %d", e.Version(), tt.version)
			}
		})
	}
}

func TestInvalidEntity(t *testing.T) {
	e := InvalidEntity()
	if e.IsValid() {
		t.Fatalf("InvalidEntity() reports valid")
	}
	if e.Handle() != InvalidHandle {
		t.Fatalf("InvalidEntity().Handle() = %d, want %d", e.Handle(), InvalidHandle)
	}
}

func TestEntityIsValid(t *testing.T) {
	valid := ComposeEntity(0, 0, 0)
	if !valid.IsValid() {
		t.Fatalf("entity with handle 0 reports invalid")
	}
	invalid := ComposeEntity(InvalidHandle, 0, 0)
	if invalid.IsValid() {
		t.Fatalf("entity with sentinel handle reports valid")
	}
}

func TestEntityWithTagAndVersion(t *testing.T) {
	e := ComposeEntity(5, 1, 1)
	retagged := e.WithTag(9)
	if retagged.Tag() != 9 || retagged.Handle() != 5 || retagged.Version() != 1 {
		t.Errorf("WithTag altered unrelated fields: %+v", retagged)
	}
	rev := e.WithVersion(2)
	if rev.Version() != 2 || rev.Handle() != 5 || rev.Tag() != 1 {
		t.Errorf("WithVersion altered unrelated fields: %+v", rev)
	}
}

func TestEntityCompare(t *testing.T) {
	a := ComposeEntity(1, 0, 0)
	b := ComposeEntity(2, 0, 0)
	if a.Compare(b) != -1 {
		t.Errorf("a.Compare(b) = %d, want -1", a.Compare(b))
	}
	if b.Compare(a) != 1 {
		t.Errorf("b.Compare(a) = %d, want 1", b.Compare(a))
	}
	if a.Compare(a) != 0 {
		t.Errorf("a.Compare(a) = %d, want 0", a.Compare(a))
	}
}
