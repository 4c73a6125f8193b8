package segbloom

import (
	"sync/atomic"
	"time"
)

// LookupResult classifies what Filter returned.
type LookupResult uint8

const (
	// LookupEmpty is a segment without live documents.
	LookupEmpty LookupResult = iota
	// LookupHit returned a built filter.
	LookupHit
	// LookupPlaceholder returned None (not built yet, oversized or closed).
	LookupPlaceholder
)

func (r LookupResult) String() string {
	switch r {
	case LookupEmpty:
		return "empty"
	case LookupHit:
		return "hit"
	case LookupPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// BuildOutcome classifies how a filter build ended.
type BuildOutcome uint8

const (
	// BuildPublished means the new filter replaced the entry.
	BuildPublished BuildOutcome = iota
	// BuildFailed means key enumeration failed; the entry is unchanged.
	BuildFailed
	// BuildAbandoned means the segment closed or was invalidated mid-build.
	BuildAbandoned
	// BuildRejected means the executor refused the task or the memory limit
	// refused the filter.
	BuildRejected
)

func (o BuildOutcome) String() string {
	switch o {
	case BuildPublished:
		return "published"
	case BuildFailed:
		return "failed"
	case BuildAbandoned:
		return "abandoned"
	case BuildRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see package promstats).
type MetricsCollector interface {
	// RecordLookup is called once per Filter call.
	RecordLookup(result LookupResult)

	// RecordBuild is called after each build attempt.
	RecordBuild(duration time.Duration, outcome BuildOutcome)

	// RecordInvalidation is called when a segment's table is dropped.
	RecordInvalidation()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLookup(LookupResult)               {}
func (NoopMetricsCollector) RecordBuild(time.Duration, BuildOutcome) {}
func (NoopMetricsCollector) RecordInvalidation()                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	EmptyLookups       atomic.Int64
	HitLookups         atomic.Int64
	PlaceholderLookups atomic.Int64
	BuildsPublished    atomic.Int64
	BuildsFailed       atomic.Int64
	BuildsAbandoned    atomic.Int64
	BuildsRejected     atomic.Int64
	BuildTotalNanos    atomic.Int64
	Invalidations      atomic.Int64
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(result LookupResult) {
	switch result {
	case LookupEmpty:
		b.EmptyLookups.Add(1)
	case LookupHit:
		b.HitLookups.Add(1)
	default:
		b.PlaceholderLookups.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, outcome BuildOutcome) {
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	switch outcome {
	case BuildPublished:
		b.BuildsPublished.Add(1)
	case BuildFailed:
		b.BuildsFailed.Add(1)
	case BuildAbandoned:
		b.BuildsAbandoned.Add(1)
	default:
		b.BuildsRejected.Add(1)
	}
}

// RecordInvalidation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvalidation() {
	b.Invalidations.Add(1)
}

// BasicMetricsStats is a point-in-time copy of BasicMetricsCollector.
type BasicMetricsStats struct {
	EmptyLookups       int64
	HitLookups         int64
	PlaceholderLookups int64
	BuildsPublished    int64
	BuildsFailed       int64
	BuildsAbandoned    int64
	BuildsRejected     int64
	BuildAvgNanos      int64
	Invalidations      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		EmptyLookups:       b.EmptyLookups.Load(),
		HitLookups:         b.HitLookups.Load(),
		PlaceholderLookups: b.PlaceholderLookups.Load(),
		BuildsPublished:    b.BuildsPublished.Load(),
		BuildsFailed:       b.BuildsFailed.Load(),
		BuildsAbandoned:    b.BuildsAbandoned.Load(),
		BuildsRejected:     b.BuildsRejected.Load(),
		Invalidations:      b.Invalidations.Load(),
	}
	if builds := s.BuildsPublished + s.BuildsFailed + s.BuildsAbandoned + s.BuildsRejected; builds > 0 {
		s.BuildAvgNanos = b.BuildTotalNanos.Load() / builds
	}
	return s
}
