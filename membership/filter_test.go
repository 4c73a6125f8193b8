package membership

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segbloom/testutil"
)

func TestSingletons(t *testing.T) {
	keys := [][]byte{nil, {}, []byte("a"), []byte("some-longer-key")}
	for _, k := range keys {
		assert.False(t, Empty.MightContain(k))
		assert.True(t, None.MightContain(k))
	}
	assert.Zero(t, Empty.SizeInBytes())
	assert.Zero(t, None.SizeInBytes())

	assert.True(t, IsNone(None))
	assert.True(t, IsNone(nil))
	assert.False(t, IsNone(Empty))
	assert.True(t, IsEmpty(Empty))
	assert.False(t, IsEmpty(None))
}

func TestFactories_NoFalseNegatives(t *testing.T) {
	factories := []struct {
		name    string
		factory Factory
	}{
		{"standard", Standard()},
		{"blocked", Blocked()},
	}

	for _, tc := range factories {
		t.Run(tc.name, func(t *testing.T) {
			const n = 5000
			b := tc.factory.New(n, 15)
			for i := range n {
				b.Add([]byte(fmt.Sprintf("key-%d", i)))
			}
			for i := range n {
				require.True(t, b.MightContain([]byte(fmt.Sprintf("key-%d", i))), "false negative for key-%d", i)
			}
			assert.Positive(t, b.SizeInBytes())
		})
	}
}

func TestFactories_FalsePositiveRate(t *testing.T) {
	rng := testutil.NewRNG(4711)
	present := rng.DistinctKeys("present-", 10000)
	absent := rng.DistinctKeys("absent-", 10000)

	for name, f := range map[string]Factory{"standard": Standard(), "blocked": Blocked()} {
		t.Run(name, func(t *testing.T) {
			b := f.New(len(present), 15)
			for _, k := range present {
				b.Add([]byte(k))
			}

			fp := 0
			for _, k := range absent {
				if b.MightContain([]byte(k)) {
					fp++
				}
			}
			// 15 bits per key targets well below 1%; allow generous slack.
			assert.Less(t, float64(fp)/float64(len(absent)), 0.02, "observed %d false positives", fp)
		})
	}
}

func TestFactories_DegenerateSizing(t *testing.T) {
	for name, f := range map[string]Factory{"standard": Standard(), "blocked": Blocked()} {
		t.Run(name, func(t *testing.T) {
			b := f.New(0, 0)
			b.Add([]byte("x"))
			assert.True(t, b.MightContain([]byte("x")))
		})
	}
}

func TestBlocked_EstimatedFalsePositiveRate(t *testing.T) {
	b := newBlocked(1000, 15).(*blockedFilter)
	assert.Zero(t, b.EstimatedFalsePositiveRate())
	for i := range 1000 {
		b.Add([]byte(fmt.Sprintf("k%d", i)))
	}
	fpr := b.EstimatedFalsePositiveRate()
	assert.Greater(t, fpr, 0.0)
	assert.Less(t, fpr, 0.01)
}

func TestStandardK(t *testing.T) {
	assert.Equal(t, uint(10), standardK(15))
	assert.Equal(t, uint(1), standardK(1))
	assert.Equal(t, uint(30), standardK(100))
}

func TestFactoryFunc(t *testing.T) {
	var gotN, gotBits int
	f := FactoryFunc(func(n, bits int) Builder {
		gotN, gotBits = n, bits
		return newStandard(n, bits)
	})
	f.New(42, 7)
	assert.Equal(t, 42, gotN)
	assert.Equal(t, 7, gotBits)
}
