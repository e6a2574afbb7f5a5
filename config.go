package ecscore

// Config holds process-wide tuning knobs for the core engine. Config is a
// package-level singleton, following the same convention the original
// implementation uses for its compile-time constants: most callers never
// touch it, and the handful that do set it once at startup.
var Config config = config{
	ChunkSize:                ChunkSize,
	InitialHiveGroupCapacity: InitialHiveGroupCapacity,
	HashSeed:                 HashSeed,
}

type config struct {
	// ChunkSize records the default chunk size. Archetype layout does not
	// read it: ArchetypeRegistry lays component groups out against the
	// ChunkSize constant, which is also the size of every Chunk buffer, so
	// changing this field has no effect.
	ChunkSize uint32

	// InitialHiveGroupCapacity records the default slot count of a Hive's
	// first group. Hive does not read it: group capacities come from the
	// InitialHiveGroupCapacity constant, so changing this field has no
	// effect.
	InitialHiveGroupCapacity uint32

	// HashSeed is the seed HashBytes and HashString pass to MurmurHash3_32.
	HashSeed uint32
}

// SetHashSeed overrides the seed used by HashBytes/HashString. It must be
// called before any TypeDescriptor is registered: changing it afterward
// would silently desynchronize the hashes of types registered under the
// old seed from types registered under the new one.
func (c *config) SetHashSeed(seed uint32) {
	c.HashSeed = seed
}
