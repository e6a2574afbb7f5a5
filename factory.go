package ecscore

// factory implements the factory pattern for building the core engine's
// top-level objects, following the same grouping convention the original
// module uses for its own Factory.
type factory struct{}

// Factory is the global factory instance for creating engine components.
var Factory factory

// NewTypeRegistry creates a new, empty TypeRegistry.
func (f factory) NewTypeRegistry() *TypeRegistry {
	return NewTypeRegistry()
}

// NewArchetypeRegistry creates a new, empty ArchetypeRegistry.
func (f factory) NewArchetypeRegistry() *ArchetypeRegistry {
	return NewArchetypeRegistry()
}

// NewEntityPool creates a new, empty EntityPool.
func (f factory) NewEntityPool() *EntityPool {
	return NewEntityPool()
}

// FactoryNewHive creates a new, empty Hive of T.
func FactoryNewHive[T any]() *Hive[T] {
	return NewHive[T]()
}

// FactoryNewComponentType registers T's reflected layout with registry (or
// returns the existing descriptor if T was already registered) and returns
// its TypeDescriptor. It is the generic entry point callers use instead of
// hand-building a TypeDescriptorBuilder for ordinary data components.
func FactoryNewComponentType[T any](registry *TypeRegistry) *TypeDescriptor {
	return GetOrCreate[T](registry)
}
