package ecscore

import (
	"context"
	"reflect"

	"github.com/kamstrup/intmap"
)

// TypeRegistry is the process-wide catalog of component TypeDescriptors,
// keyed by name hash. A single lock protects the map; Get/Register/
// GetOrCreate are safe for concurrent use, and the cooperative *Context
// variants acquire the same lock so that a successful Register on one
// goroutine is visible to a subsequent Get on any other, per spec.md §5.
type TypeRegistry struct {
	mu    coopLock
	types *intmap.Map[uint32, *TypeDescriptor]
}

// NewTypeRegistry returns an empty TypeRegistry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		mu:    newCoopLock(),
		types: intmap.New[uint32, *TypeDescriptor](64),
	}
}

// Get returns the descriptor registered under name, or nil if absent.
// Lookups never error on "not found".
func (r *TypeRegistry) Get(name string) *TypeDescriptor {
	return r.GetByHash(HashString(name))
}

// GetByHash returns the descriptor registered under nameHash, or nil.
func (r *TypeRegistry) GetByHash(nameHash uint32) *TypeDescriptor {
	release := r.mu.lockBlocking()
	defer release()
	d, _ := r.types.Get(nameHash)
	return d
}

// GetContext is the cooperative variant of GetByHash.
func (r *TypeRegistry) GetContext(ctx context.Context, nameHash uint32) (*TypeDescriptor, error) {
	release, err := r.mu.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	d, _ := r.types.Get(nameHash)
	return d, nil
}

// Register performs an atomic insert-if-absent keyed on descriptor's
// NameHash. If an incumbent with a different LayoutHash already occupies
// the key, the incumbent is returned and the caller's descriptor is NOT
// installed — this is the hash-conflict resolution spec.md §4.E mandates:
// incumbent wins, the caller must treat the return value as canonical.
func (r *TypeRegistry) Register(descriptor *TypeDescriptor) *TypeDescriptor {
	release := r.mu.lockBlocking()
	defer release()
	return r.registerLocked(descriptor)
}

// RegisterContext is the cooperative variant of Register.
func (r *TypeRegistry) RegisterContext(ctx context.Context, descriptor *TypeDescriptor) (*TypeDescriptor, error) {
	release, err := r.mu.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.registerLocked(descriptor), nil
}

func (r *TypeRegistry) registerLocked(descriptor *TypeDescriptor) *TypeDescriptor {
	nameHash := descriptor.Hash().NameHash
	if incumbent, ok := r.types.Get(nameHash); ok {
		return incumbent
	}
	r.types.Put(nameHash, descriptor)
	return descriptor
}

// GetOrCreate is the generic reflection façade: it resolves T's canonical
// name, looks it up, and on miss builds a descriptor from reflection
// metadata, recursively registering each field's type first. Types that
// transitively contain themselves are rejected by Go's own recursive-type
// restrictions before reflection ever sees them, satisfying the
// reentrancy requirement in spec.md §4.E without extra bookkeeping.
func GetOrCreate[T any](r *TypeRegistry) *TypeDescriptor {
	return r.getOrCreateReflect(reflect.TypeFor[T]())
}

func (r *TypeRegistry) getOrCreateReflect(t reflect.Type) *TypeDescriptor {
	name := t.String()
	nameHash := HashString(name)

	if existing := r.GetByHash(nameHash); existing != nil {
		return existing
	}

	fields := reflectFieldDescriptors(t, r.getOrCreateReflect)

	builder := NewTypeDescriptorBuilder(name, uint32(t.Size()), uint32(t.Align()), VTable{}, len(fields), ClassData, 0)
	for i, f := range fields {
		builder.SetField(i, f.FieldType, f.Offset)
	}
	descriptor, err := builder.Finalize()
	if err != nil {
		// A field-layout invariant violation here means reflect disagreed
		// with itself about offsets, which indicates a registry bug rather
		// than bad caller input — there is no recoverable path.
		panic(err)
	}

	return r.Register(descriptor)
}
