package memseg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segbloom"
)

func newTestSegment() *Segment {
	b := NewBuilder()
	b.Add(Doc{"sku": {"A2"}, "color": {"red"}})
	b.Add(Doc{"sku": {"A1"}, "color": {"red", "blue"}})
	b.Add(Doc{"sku": {"A3"}})
	return b.Build()
}

func collectKeys(t *testing.T, seq func(func([]byte, error) bool)) ([]string, error) {
	t.Helper()
	var keys []string
	for k, err := range seq {
		if err != nil {
			return keys, err
		}
		keys = append(keys, string(k))
	}
	return keys, nil
}

func TestSegment_Keys(t *testing.T) {
	seg := newTestSegment()
	defer seg.Close()

	keys, err := collectKeys(t, seg.Keys(t.Context(), "sku"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3"}, keys)

	keys, err = collectKeys(t, seg.Keys(t.Context(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.Equal(t, int64(2), seg.Scans())
	assert.Equal(t, []string{"color", "sku"}, seg.Fields())
}

func TestSegment_DeleteKeepsKeys(t *testing.T) {
	seg := newTestSegment()
	defer seg.Close()

	assert.Equal(t, 3, seg.LiveDocs())
	assert.True(t, seg.Delete(0))
	assert.False(t, seg.Delete(0))
	assert.False(t, seg.IsLive(0))
	assert.Equal(t, 2, seg.LiveDocs())

	// Keys of deleted documents stay enumerable.
	keys, err := collectKeys(t, seg.Keys(t.Context(), "sku"))
	require.NoError(t, err)
	assert.Contains(t, keys, "A2")

	// Lookups only see live documents.
	bm, err := seg.Lookup("sku", "A2")
	require.NoError(t, err)
	assert.True(t, bm.IsEmpty())

	bm, err = seg.Lookup("color", "red")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, bm.ToArray())
}

func TestSegment_Close(t *testing.T) {
	seg := newTestSegment()

	var fired []segbloom.SegmentID
	seg.OnClose(func(id segbloom.SegmentID) { fired = append(fired, id) })
	seg.OnClose(func(id segbloom.SegmentID) { fired = append(fired, id) })

	require.NoError(t, seg.Close())
	require.NoError(t, seg.Close())
	assert.Equal(t, []segbloom.SegmentID{seg.ID(), seg.ID()}, fired)

	// Listeners registered after close run immediately.
	late := false
	seg.OnClose(func(segbloom.SegmentID) { late = true })
	assert.True(t, late)

	_, err := collectKeys(t, seg.Keys(t.Context(), "sku"))
	assert.ErrorIs(t, err, segbloom.ErrSegmentClosed)

	_, err = seg.Lookup("sku", "A1")
	assert.ErrorIs(t, err, segbloom.ErrSegmentClosed)
	assert.False(t, seg.Delete(1))
}

func TestSegment_CloseMidScan(t *testing.T) {
	seg := newTestSegment()

	var keys []string
	var scanErr error
	for k, err := range seg.Keys(t.Context(), "sku") {
		if err != nil {
			scanErr = err
			break
		}
		keys = append(keys, string(k))
		require.NoError(t, seg.Close())
	}

	assert.Equal(t, []string{"A1"}, keys)
	assert.True(t, errors.Is(scanErr, segbloom.ErrSegmentClosed))
}

func TestSegment_KeysContextCancelled(t *testing.T) {
	seg := newTestSegment()
	defer seg.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := collectKeys(t, seg.Keys(ctx, "sku"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSegment_UniqueIDs(t *testing.T) {
	a := NewBuilder().Build()
	b := NewBuilder().Build()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Zero(t, a.LiveDocs())
}
