package ecscore

import "math/bits"

// HashSeed is the fixed MurmurHash3 seed used for every name, layout, and
// archetype hash in the core. It spells "xecs" in hex.
const HashSeed uint32 = 0x78656373

const (
	murmurC1 uint32 = 0xcc9e2d51
	murmurC2 uint32 = 0x1b873593
)

func murmurRotl(x uint32, r uint8) uint32 {
	return (x << r) | (x >> (32 - r))
}

func murmurFmix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// MurmurHash3_32 computes the x86-32 variant of MurmurHash3 over data using
// the given seed. It is a direct, byte-for-byte port of the reference
// implementation (rotl / block read / tail handling / finalization mix) and
// produces identical output whether data is known at call time or built up
// at runtime, so callers may use it both for ad hoc byte ranges and for
// precomputed constant tables.
func MurmurHash3_32(data []byte, seed uint32) uint32 {
	h1 := seed
	length := len(data)
	nblocks := length / 4

	for i := 0; i < nblocks; i++ {
		off := i * 4
		k1 := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24

		k1 *= murmurC1
		k1 = murmurRotl(k1, 15)
		k1 *= murmurC2

		h1 ^= k1
		h1 = murmurRotl(h1, 13)
		h1 = h1*5 + 0xe6546b64
	}

	var k1 uint32
	tail := data[nblocks*4:]
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= murmurC1
		k1 = murmurRotl(k1, 15)
		k1 *= murmurC2
		h1 ^= k1
	}

	h1 ^= uint32(length)
	return murmurFmix(h1)
}

// HashBytes hashes data with Config.HashSeed (HashSeed by default). Every
// name hash, layout hash, and archetype hash in the core goes through this
// function so that they remain comparable across independently-built
// TypeDescriptors.
func HashBytes(data []byte) uint32 {
	return MurmurHash3_32(data, Config.HashSeed)
}

// HashString hashes the UTF-8 bytes of s with Config.HashSeed.
func HashString(s string) uint32 {
	return HashBytes([]byte(s))
}

// nextPowerOfTwo rounds alignment up to the next power of two. Callers are
// required by contract to already pass a power of two (spec-mandated
// precondition, mirroring the original C++'s std::bit_ceil call on an
// argument documented as already being one) — this only protects AlignUp
// and AlignDown from becoming silently wrong if that precondition is ever
// violated, it is not a validation API.
func nextPowerOfTwo(alignment uint32) uint32 {
	if alignment <= 1 {
		return 1
	}
	return 1 << bits.Len32(alignment-1)
}

// AlignUp rounds value up to the next multiple of alignment, which must be a
// power of two (a non-power-of-two alignment is rounded up to the next power
// of two before masking, per the documented policy — not a safety net).
func AlignUp(value, alignment uint32) uint32 {
	mask := nextPowerOfTwo(alignment) - 1
	return (value + mask) &^ mask
}

// AlignDown rounds value down to the previous multiple of alignment, which
// must be a power of two.
func AlignDown(value, alignment uint32) uint32 {
	mask := nextPowerOfTwo(alignment) - 1
	return value &^ mask
}
