package segbloom

import (
	"context"
	"iter"
	"sync/atomic"
)

// SegmentID identifies one open segment instance. It is only compared for
// equality; a reopened segment must get a new SegmentID.
type SegmentID uint64

var lastSegmentID atomic.Uint64

// NewSegmentID returns a process-unique SegmentID.
func NewSegmentID() SegmentID {
	return SegmentID(lastSegmentID.Add(1))
}

// Segment is the view of an immutable index segment the cache needs.
type Segment interface {
	// ID is stable while the segment is open.
	ID() SegmentID

	// LiveDocs returns the number of documents not marked deleted.
	LiveDocs() int

	// Keys enumerates the distinct keys of field in one pass. Keys of deleted
	// documents may be included. A segment closed mid-scan yields an error
	// wrapping ErrSegmentClosed.
	Keys(ctx context.Context, field string) iter.Seq2[[]byte, error]

	// OnClose registers fn to run exactly once when the segment closes.
	// On an already closed segment fn runs immediately.
	OnClose(fn func(SegmentID))
}

// Executor runs background tasks.
//
// Async lookups must not wait for queue space. Executors implementing
// TryExecutor are used through TrySubmit; for any other executor Submit
// is expected to return promptly.
type Executor interface {
	// Submit schedules task. A nil error means task will run.
	Submit(ctx context.Context, task func()) error
}

// TryExecutor is an Executor that can refuse a task instead of blocking.
// executor.WorkerPool implements it.
type TryExecutor interface {
	Executor

	// TrySubmit schedules task if there is room right now.
	TrySubmit(task func()) error
}
