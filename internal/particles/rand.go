package particles

import "math"

// DefaultSeed is the generator's initial state.
const DefaultSeed uint32 = 0x12345678

// Rand is a xorshift32 generator. It is deterministic for a given seed and
// not safe for concurrent use.
type Rand struct {
	state uint32
}

// NewRand returns a generator seeded with seed. A zero seed would stick at
// zero, so it is replaced by DefaultSeed.
func NewRand(seed uint32) *Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Rand{state: seed}
}

// Uint32 advances the generator.
func (r *Rand) Uint32() uint32 {
	v := r.state
	v ^= v << 13
	v ^= v >> 17
	v ^= v << 5
	r.state = v
	return v
}

// Unit returns a value in [0.0001, 1].
func (r *Rand) Unit() float32 {
	return max(float32(r.Uint32())/float32(math.MaxUint32), 0.0001)
}
