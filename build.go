package segbloom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/segbloom/internal/resource"
)

// launch starts a build for s. The caller must hold the slot's build gate.
func (c *Cache) launch(ctx context.Context, seg Segment, t *segmentTable, s *fieldSlot, field string, async bool) {
	s.failed.Store(false)
	c.inflight.Add(1)

	if !async {
		c.build(ctx, seg, t, s, field)
		return
	}

	// The build outlives the lookup that started it.
	bctx := context.WithoutCancel(ctx)
	task := func() {
		if err := c.rc.AcquireBuild(bctx); err != nil {
			c.finish(bctx, t, s, field, time.Now(), BuildRejected, err)
			return
		}
		defer c.rc.ReleaseBuild()
		c.build(bctx, seg, t, s, field)
	}

	var err error
	if te, ok := c.executor.(TryExecutor); ok {
		err = te.TrySubmit(task)
	} else {
		err = c.executor.Submit(ctx, task)
	}
	if err != nil {
		// A full queue counts as a rejection; a later lookup retries.
		s.failed.Store(true)
		c.finish(ctx, t, s, field, time.Now(), BuildRejected, fmt.Errorf("submit build: %w", err))
	}
}

// build enumerates the keys of field, fills a new filter and publishes it.
// It always releases the slot's build gate.
func (c *Cache) build(ctx context.Context, seg Segment, t *segmentTable, s *fieldSlot, field string) {
	start := time.Now()
	outcome, err := c.runBuild(ctx, seg, t, s, field)
	c.finish(ctx, t, s, field, start, outcome, err)
}

func (c *Cache) finish(ctx context.Context, t *segmentTable, s *fieldSlot, field string, start time.Time, outcome BuildOutcome, err error) {
	d := time.Since(start)
	if outcome == BuildFailed {
		s.failed.Store(true)
	}
	s.building.Store(false)
	c.inflight.Add(-1)

	c.metrics.RecordBuild(d, outcome)
	c.logger.LogBuild(ctx, t.id, field, outcome, d, err)
}

func (c *Cache) runBuild(ctx context.Context, seg Segment, t *segmentTable, s *fieldSlot, field string) (outcome BuildOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = BuildFailed, fmt.Errorf("panic while enumerating keys: %v", r)
		}
	}()

	live := seg.LiveDocs()
	b := c.factory.New(live, c.bitsPerKey)

	for key, kerr := range seg.Keys(ctx, field) {
		if kerr != nil {
			if errors.Is(kerr, ErrSegmentClosed) {
				return BuildAbandoned, kerr
			}
			return BuildFailed, kerr
		}
		if err := c.rc.AcquireScan(ctx, len(key)); err != nil {
			return BuildAbandoned, err
		}
		b.Add(key)
	}

	return c.publish(t, s, field, &filterEntry{
		docCount: live,
		filter:   b,
		reserved: b.SizeInBytes(),
	})
}

// publish installs e unless the table or slot was invalidated meanwhile.
func (c *Cache) publish(t *segmentTable, s *fieldSlot, field string, e *filterEntry) (BuildOutcome, error) {
	v, ok := c.tables.Load(t.id)
	if !ok || v.(*segmentTable) != t {
		return BuildAbandoned, errTableRetired
	}
	if cur, ok := t.lookup(field); !ok || cur != s {
		return BuildAbandoned, errTableRetired
	}

	switch err := t.publish(s, e, c.rc); {
	case err == nil:
		return BuildPublished, nil
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		return BuildRejected, err
	default:
		return BuildAbandoned, err
	}
}
