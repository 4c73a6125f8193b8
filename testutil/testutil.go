package testutil

import (
	"encoding/hex"
	"math"
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

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Key returns a random key of length bytes, hex encoded with prefix.
func (r *RNG) Key(prefix string, length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keyLocked(prefix, length)
}

func (r *RNG) keyLocked(prefix string, length int) string {
	buf := make([]byte, length)
	_, _ = r.rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}

// DistinctKeys returns n distinct random keys sharing prefix.
// Two calls with different prefixes never overlap.
func (r *RNG) DistinctKeys(prefix string, n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		k := r.keyLocked(prefix, 8)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// ZipfDocs assigns one value from vocab to each of num documents with a
// Zipfian skew, the way field values such as brand or color are distributed.
// The result is suitable as the values of one field across a segment.
func (r *RNG) ZipfDocs(num int, vocab []string, s float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]string, num)
	for i := range docs {
		docs[i] = vocab[r.zipfLocked(len(vocab), s)]
	}
	return docs
}
