// Package segbloom caches per-field membership filters over immutable index segments.
//
// A Cache answers "might this key exist in this field of this segment?" cheaply,
// amortizing the cost of scanning every key of a field to build the filter.
//
// # Quick Start
//
//	pool := executor.NewWorkerPool(4)
//	defer pool.Close()
//
//	c, err := segbloom.New(segbloom.WithExecutor(pool), segbloom.WithMaxSize("500m"))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	f := c.Filter(ctx, seg, "sku", true)
//	if !f.MightContain([]byte("A1")) {
//	    // definitely absent, skip the segment
//	}
//
// # Lifecycle
//
// Each segment gets a table the first time one of its fields is queried. The
// cache registers a close listener on the segment and drops the whole table
// exactly when the segment closes. Segments without live documents never get
// a table and always yield membership.Empty.
//
// # Builds
//
// The first query of a field starts a build: inline when async is false,
// through the Executor otherwise. Async callers get membership.None (which
// contains everything) until the build publishes. At most one build per
// (segment, field) is in flight at any time.
//
// Builds are repeated when the filter has gone stale, i.e. when the segment
// has lost a large share of the documents counted at build time:
//
//	docCount > StaleMinDocs && docCount < MaxDocs && live/docCount < StaleRatio
//
// Segments with MaxDocs or more live documents are never built and stay None.
//
// # Failure Model
//
// Filter never fails. Enumeration errors are logged, the previous filter is
// kept and the next call may retry. A segment closing while its filter is
// being built is not an error; the result is dropped.
package segbloom
