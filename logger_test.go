package segbloom

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestLogger_LogBuild(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelDebug)

	l.LogBuild(t.Context(), 7, "sku", BuildFailed, time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "failed to build membership filter")
	assert.Contains(t, buf.String(), "segment=7")
	assert.Contains(t, buf.String(), "field=sku")
	assert.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	l.LogBuild(t.Context(), 7, "sku", BuildPublished, time.Millisecond, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "duration=1ms")
}

func TestLogger_LevelFiltersDebug(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)

	l.LogBuild(t.Context(), 1, "sku", BuildAbandoned, 0, ErrSegmentClosed)
	l.LogInvalidate(t.Context(), 1, 3, 1024)
	assert.Empty(t, buf.String())
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)

	l.WithSegment(9).WithField("color").Info("probe")
	assert.Contains(t, buf.String(), "segment=9")
	assert.Contains(t, buf.String(), "field=color")
}

func TestCache_LogsFailedBuild(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelWarn)
	c, _, _ := newTestCache(t, WithLogger(l))

	seg := newFakeSegment(100, skuKeys(3))
	seg.setFailure(errors.New("bad block"))
	c.Filter(t.Context(), seg, "sku", false)

	require.Contains(t, buf.String(), "failed to build membership filter")
	assert.Contains(t, buf.String(), "bad block")
}

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordLookup(LookupEmpty)
	m.RecordLookup(LookupHit)
	m.RecordLookup(LookupHit)
	m.RecordLookup(LookupPlaceholder)
	m.RecordBuild(2*time.Millisecond, BuildPublished)
	m.RecordBuild(4*time.Millisecond, BuildFailed)
	m.RecordInvalidation()

	s := m.GetStats()
	assert.Equal(t, int64(1), s.EmptyLookups)
	assert.Equal(t, int64(2), s.HitLookups)
	assert.Equal(t, int64(1), s.PlaceholderLookups)
	assert.Equal(t, int64(1), s.BuildsPublished)
	assert.Equal(t, int64(1), s.BuildsFailed)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.BuildAvgNanos)
	assert.Equal(t, int64(1), s.Invalidations)

	assert.Equal(t, "rejected", BuildRejected.String())
	assert.Equal(t, "placeholder", LookupPlaceholder.String())
}
