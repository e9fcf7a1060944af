package optimizer

import (
	"hash/fnv"
	"math/rand"
)

// dimensionRNG provides deterministic, isolated random streams per dimension.
//
// Derivation formula: seed XOR fnv1a64(dimensionName). Adding or reordering
// dimensions therefore never shifts the values drawn for the others.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type dimensionRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

func newDimensionRNG(seed int64) *dimensionRNG {
	return &dimensionRNG{
		seed:    seed,
		streams: make(map[string]*rand.Rand),
	}
}

// forDimension returns the cached stream for name, creating it on first use.
func (d *dimensionRNG) forDimension(name string) *rand.Rand {
	if rng, ok := d.streams[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(d.seed ^ fnv1a64(name)))
	d.streams[name] = rng
	return rng
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
