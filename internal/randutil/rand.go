// Package randutil derives reproducible generators from small seeds.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from seed. Nearby seeds
// give unrelated sequences.
func New(seed uint64) *rand.Rand {
	return NewStream(seed, 0)
}

// NewStream returns the generator for one of many streams sharing a seed,
// such as one per table in a simulation run
func NewStream(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(mix(seed), mix(stream+goldenRatio64)))
}

// mix is the splitmix64 finalizer
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
