package segbloom

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/segbloom/executor"
	"github.com/hupe1980/segbloom/internal/resource"
	"github.com/hupe1980/segbloom/membership"
)

// Cache builds, caches and invalidates membership filters per (segment, field).
//
// A Cache is safe for concurrent use. Create it when the enclosing index opens
// and Close it when the index closes.
type Cache struct {
	maxDocs      int
	staleMinDocs int
	staleRatio   float64
	bitsPerKey   int

	executor  Executor
	ownedPool *executor.WorkerPool
	factory   membership.Factory
	rc        *resource.Controller
	logger    *Logger
	metrics   MetricsCollector

	tables sync.Map // SegmentID -> *segmentTable

	// createMu serializes table creation and guards listening and closed
	// transitions. It is never held while calling into a Segment.
	createMu  sync.Mutex
	listening map[SegmentID]struct{}
	closed    atomic.Bool

	inflight atomic.Int64
}

// New creates a Cache.
//
// Invalid options are reported as *ConfigError.
func New(opts ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		maxDocs:      o.maxDocs,
		staleMinDocs: o.staleMinDocs,
		staleRatio:   o.staleRatio,
		bitsPerKey:   o.bitsPerKey,
		executor:     o.executor,
		factory:      o.factory,
		logger:       o.logger,
		metrics:      o.metrics,
		listening:    make(map[SegmentID]struct{}),
	}

	if c.factory == nil {
		c.factory = membership.Standard()
	}
	if c.logger == nil {
		c.logger = NoopLogger()
	}
	if c.metrics == nil {
		c.metrics = NoopMetricsCollector{}
	}
	if c.executor == nil {
		c.ownedPool = executor.NewWorkerPool(0)
		c.executor = c.ownedPool
	}
	if o.memoryLimit > 0 || o.maxConcurrentBuilds > 0 || o.scanBytesPerSec > 0 {
		c.rc = resource.NewController(resource.Config{
			MemoryLimitBytes:    o.memoryLimit,
			MaxConcurrentBuilds: o.maxConcurrentBuilds,
			ScanBytesPerSec:     o.scanBytesPerSec,
		})
	}

	return c, nil
}

// Filter returns the best available membership filter for field in seg.
//
// Segments without live documents yield membership.Empty and leave no trace
// in the cache. Otherwise the returned filter may be membership.None while
// no build has completed. With async set the call never waits for a build
// or for executor queue space: a full queue rejects the build and a later
// call retries it. Without async, a build this call starts runs inline
// before returning.
//
// Filter never fails; errors degrade to the previous or None filter.
func (c *Cache) Filter(ctx context.Context, seg Segment, field string, async bool) membership.Filter {
	live := seg.LiveDocs()
	if live <= 0 {
		c.metrics.RecordLookup(LookupEmpty)
		return membership.Empty
	}

	t := c.table(seg)
	if t == nil {
		c.metrics.RecordLookup(LookupPlaceholder)
		return membership.None
	}

	s, created := t.slot(field, live, c.maxDocs)
	if created && s.building.Load() {
		c.launch(ctx, seg, t, s, field, async)
	} else if c.stale(s.entry.Load(), live) || s.failed.Load() {
		if s.building.CompareAndSwap(false, true) {
			c.launch(ctx, seg, t, s, field, async)
		}
	}

	e := s.entry.Load()

	if membership.IsNone(e.filter) {
		c.metrics.RecordLookup(LookupPlaceholder)
	} else {
		c.metrics.RecordLookup(LookupHit)
	}
	return e.filter
}

// stale reports whether e was built against so many more documents than are
// live now that rebuilding would restore selectivity.
func (c *Cache) stale(e *filterEntry, live int) bool {
	if e.docCount <= c.staleMinDocs || e.docCount >= c.maxDocs {
		return false
	}
	return float64(live)/float64(e.docCount) < c.staleRatio
}

// table returns the table of seg, creating it and registering the close
// listener on first use. Returns nil once the cache is closed.
func (c *Cache) table(seg Segment) *segmentTable {
	id := seg.ID()
	if v, ok := c.tables.Load(id); ok {
		return v.(*segmentTable)
	}

	c.createMu.Lock()
	if c.closed.Load() {
		c.createMu.Unlock()
		return nil
	}
	if v, ok := c.tables.Load(id); ok {
		c.createMu.Unlock()
		return v.(*segmentTable)
	}
	t := newSegmentTable(id)
	c.tables.Store(id, t)
	_, registered := c.listening[id]
	if !registered {
		c.listening[id] = struct{}{}
	}
	c.createMu.Unlock()

	// A closed segment fires the listener right away, which needs createMu.
	if !registered {
		seg.OnClose(c.segmentClosed)
	}
	return t
}

func (c *Cache) segmentClosed(id SegmentID) {
	c.createMu.Lock()
	if c.closed.Load() {
		c.createMu.Unlock()
		return
	}
	delete(c.listening, id)
	c.createMu.Unlock()

	c.ClearSegment(id)
}

// ClearSegment drops every filter of segment id. Builds still running for
// it discard their result. Calling it again for the same id is a no-op.
func (c *Cache) ClearSegment(id SegmentID) {
	v, ok := c.tables.LoadAndDelete(id)
	if !ok {
		return
	}
	entries, bytes := v.(*segmentTable).retire(c.rc)
	c.metrics.RecordInvalidation()
	c.logger.LogInvalidate(context.Background(), id, entries, bytes)
}

// Clear drops all cached filters.
func (c *Cache) Clear() {
	c.tables.Range(func(k, _ any) bool {
		c.ClearSegment(k.(SegmentID))
		return true
	})
}

// SizeInBytes returns the bytes held by all cached filters. The sum is a
// point-in-time approximation under concurrent builds.
func (c *Cache) SizeInBytes() int64 {
	return c.sizeInBytes("", true)
}

// FieldSizeInBytes returns the bytes held by cached filters of field.
func (c *Cache) FieldSizeInBytes(field string) int64 {
	return c.sizeInBytes(field, false)
}

func (c *Cache) sizeInBytes(field string, all bool) int64 {
	var total int64
	c.tables.Range(func(_, v any) bool {
		total += v.(*segmentTable).sizeInBytes(field, all)
		return true
	})
	return total
}

// Stats is a point-in-time summary of the cache.
type Stats struct {
	Segments       int
	Entries        int
	Built          int
	BuildsInFlight int64
	SizeBytes      int64
	ReservedBytes  int64
}

// Stats returns a point-in-time summary of the cache.
func (c *Cache) Stats() Stats {
	var s Stats
	c.tables.Range(func(_, v any) bool {
		s.Segments++
		v.(*segmentTable).slots.Range(func(_, sv any) bool {
			e := sv.(*fieldSlot).entry.Load()
			s.Entries++
			if !membership.IsNone(e.filter) {
				s.Built++
			}
			s.SizeBytes += e.filter.SizeInBytes()
			return true
		})
		return true
	})
	s.BuildsInFlight = c.inflight.Load()
	s.ReservedBytes = c.rc.MemoryUsage()
	return s
}

// Close drops all filters. Later lookups return membership.None without
// caching anything. A worker pool created by New is shut down; an executor
// passed with WithExecutor is left to its owner. Close is idempotent.
//
// Segments cannot unregister close listeners, so a closed Cache stays
// reachable from each segment it served until that segment closes. The
// listeners do nothing once the cache is closed.
func (c *Cache) Close() error {
	c.createMu.Lock()
	if c.closed.Load() {
		c.createMu.Unlock()
		return nil
	}
	c.closed.Store(true)
	clear(c.listening)
	c.createMu.Unlock()

	c.Clear()
	if c.ownedPool != nil {
		c.ownedPool.Close()
	}
	return nil
}
