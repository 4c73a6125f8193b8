package membership

import (
	"math"

	"github.com/bits-and-blooms/bloom/v3"
)

// standardHeaderBytes approximates the fixed overhead of a bloom.BloomFilter
// (m, k and the bitset header).
const standardHeaderBytes = 32

type standardFilter struct {
	bf *bloom.BloomFilter
}

// Standard returns a factory producing classic bloom filters.
//
// The filter uses m = n*bitsPerKey bits and k = round(bitsPerKey*ln2) hash
// functions, which is optimal for the requested bits per key.
func Standard() Factory {
	return FactoryFunc(newStandard)
}

func newStandard(expectedInsertions, bitsPerKey int) Builder {
	n, bpk := normalizeSizing(expectedInsertions, bitsPerKey)
	m := uint(n) * uint(bpk)
	if m < 64 {
		m = 64
	}
	return &standardFilter{bf: bloom.New(m, standardK(bpk))}
}

func standardK(bitsPerKey int) uint {
	k := uint(math.Round(float64(bitsPerKey) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 30 {
		k = 30
	}
	return k
}

// Add inserts key.
func (f *standardFilter) Add(key []byte) {
	f.bf.Add(key)
}

// MightContain implements Filter.
func (f *standardFilter) MightContain(key []byte) bool {
	return f.bf.Test(key)
}

// SizeInBytes implements Filter.
func (f *standardFilter) SizeInBytes() int64 {
	return int64((f.bf.Cap()+63)/64*8) + standardHeaderBytes
}

// normalizeSizing clamps degenerate sizing parameters.
func normalizeSizing(expectedInsertions, bitsPerKey int) (int, int) {
	if expectedInsertions < 1 {
		expectedInsertions = 1
	}
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}
	return expectedInsertions, bitsPerKey
}
