package testutil

import (
	"bytes"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Blob returns a random byte slice of exactly n bytes.
func (r *RNG) Blob(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	r.rand.Read(b)
	return b
}

// Blobs returns count random byte slices with sizes uniformly distributed
// in [minSize, maxSize].
func (r *RNG) Blobs(count, minSize, maxSize int) [][]byte {
	out := make([][]byte, count)
	for i := range out {
		n := minSize
		if maxSize > minSize {
			n += r.Intn(maxSize - minSize + 1)
		}
		out[i] = r.Blob(n)
	}
	return out
}

// Equal reports whether two blobs are bitwise identical.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}
