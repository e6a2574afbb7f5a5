package ecscore

import (
	"reflect"
	"unsafe"
)

// Classification marks whether a registered type is usable as a component,
// and if so, how the store is expected to treat it across structural
// changes.
type Classification uint8

const (
	// ClassNone means "not usable as a component"; archetype construction
	// must reject any type carrying this classification.
	ClassNone Classification = iota
	// ClassData is a plain-old-data component.
	ClassData
	// ClassCopyOnWrite is a component the store may share until written.
	ClassCopyOnWrite
)

// TypeHash is the two-half hash of a registered type: NameHash depends only
// on the canonical name (used as the registry key), LayoutHash depends on
// the type's field composition (used to detect structural redefinitions
// under the same name).
type TypeHash struct {
	NameHash   uint32
	LayoutHash uint32
}

// Pack returns the TypeHash as a single 64-bit value, NameHash in the high
// half, LayoutHash in the low half.
func (h TypeHash) Pack() uint64 {
	return uint64(h.NameHash)<<32 | uint64(h.LayoutHash)
}

// Less orders two TypeHashes by their packed value, used to canonicalize
// archetype component order.
func (h TypeHash) Less(other TypeHash) bool {
	return h.Pack() < other.Pack()
}

// VTable holds the five lifecycle operations a component type may need.
// Any entry that would be trivial is left nil; consumers must skip nil
// entries rather than calling through them.
type VTable struct {
	Construct  func(unsafe.Pointer)
	Destroy    func(unsafe.Pointer)
	CopyAssign func(dst, src unsafe.Pointer)
	Swap       func(a, b unsafe.Pointer)
	MoveAssign func(dst, src unsafe.Pointer)
}

// Field describes one member of a component type's layout.
type Field struct {
	FieldType *TypeDescriptor
	Offset    uint32
}

// TypeDescriptor is the runtime record for one registered component type.
// Once registered, a descriptor's fields, hash, and address are stable for
// the registry's lifetime — descriptors are never relocated or mutated
// after Finalize/Register.
type TypeDescriptor struct {
	Name           string
	Size           uint32
	Alignment      uint32
	VTable         VTable
	Fields         []Field
	Classification Classification
	GroupID        uint32

	hash      TypeHash
	finalized bool
}

// Hash returns the descriptor's TypeHash. Calling Hash before Finalize
// returns the zero value; the registry never exposes an un-finalized
// descriptor to callers.
func (t *TypeDescriptor) Hash() TypeHash {
	return t.hash
}

// Finalized reports whether Finalize has run successfully.
func (t *TypeDescriptor) Finalized() bool {
	return t.finalized
}

// TypeDescriptorBuilder incrementally constructs a TypeDescriptor: fields
// are populated via SetField after the base shape is supplied, then
// Finalize computes the layout hash and validates field placement.
type TypeDescriptorBuilder struct {
	desc *TypeDescriptor
}

// NewTypeDescriptorBuilder starts building a descriptor for a component
// type with the given shape. name must be non-empty; alignment must be a
// power of two, except for size-0 (incomplete) types. Neither condition is
// checked here or by Finalize.
func NewTypeDescriptorBuilder(name string, size, alignment uint32, vtable VTable, fieldCount int, classification Classification, groupID uint32) *TypeDescriptorBuilder {
	return &TypeDescriptorBuilder{
		desc: &TypeDescriptor{
			Name:           name,
			Size:           size,
			Alignment:      alignment,
			VTable:         vtable,
			Fields:         make([]Field, fieldCount),
			Classification: classification,
			GroupID:        groupID,
		},
	}
}

// SetField assigns the type and byte offset of field i. Fields must be set
// for every index in [0, fieldCount) before Finalize is called.
func (b *TypeDescriptorBuilder) SetField(i int, fieldType *TypeDescriptor, offset uint32) *TypeDescriptorBuilder {
	b.desc.Fields[i] = Field{FieldType: fieldType, Offset: offset}
	return b
}

// Finalize validates field placement, computes LayoutHash from the
// concatenated field TypeHashes in declaration order, computes NameHash
// from the name bytes, and returns the completed descriptor. It is an error
// to call Finalize twice or with an incomplete field list.
func (b *TypeDescriptorBuilder) Finalize() (*TypeDescriptor, error) {
	d := b.desc
	if d.finalized {
		return nil, &CoreError{Code: ErrInvalidArchetype, Err: errAlreadyFinalized}
	}

	for i, f := range d.Fields {
		if f.FieldType == nil {
			return nil, &CoreError{Code: ErrInvalidArchetype, Err: errNilFieldType(i)}
		}
		if d.Size > 0 && f.Offset+f.FieldType.Size > d.Size {
			return nil, &CoreError{Code: ErrInvalidArchetype, Err: errFieldOverflow(i)}
		}
		if f.FieldType.Alignment > 0 && f.Offset%f.FieldType.Alignment != 0 {
			return nil, &CoreError{Code: ErrInvalidArchetype, Err: errFieldMisaligned(i)}
		}
	}

	d.hash.NameHash = HashString(d.Name)
	d.hash.LayoutHash = hashFieldHashes(d.Fields)
	d.finalized = true
	return d, nil
}

func hashFieldHashes(fields []Field) uint32 {
	buf := make([]byte, 0, len(fields)*8)
	for _, f := range fields {
		packed := f.FieldType.Hash().Pack()
		buf = append(buf,
			byte(packed), byte(packed>>8), byte(packed>>16), byte(packed>>24),
			byte(packed>>32), byte(packed>>40), byte(packed>>48), byte(packed>>56),
		)
	}
	return HashBytes(buf)
}

// reflectFieldDescriptors builds Field entries for every exported field of
// a reflected struct type, registering each field's own type first. It is
// used by TypeRegistry.GetOrCreate's reflection façade (typeregistry.go)
// and intentionally lives here since it only ever produces TypeDescriptor
// inputs, never touches the registry's lock.
func reflectFieldDescriptors(t reflect.Type, register func(reflect.Type) *TypeDescriptor) []Field {
	if t.Kind() != reflect.Struct {
		return nil
	}
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fields = append(fields, Field{
			FieldType: register(sf.Type),
			Offset:    uint32(sf.Offset),
		})
	}
	return fields
}
