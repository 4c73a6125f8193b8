package segbloom

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/segbloom/internal/resource"
	"github.com/hupe1980/segbloom/membership"
)

var errTableRetired = errors.New("segment table retired")

// filterEntry is an immutable published filter.
type filterEntry struct {
	// docCount is the live document count the filter was built against.
	docCount int
	filter   membership.Filter
	// reserved is the memory held with the resource controller.
	reserved int64
}

// fieldSlot holds the current entry of one field and its build gate.
type fieldSlot struct {
	entry atomic.Pointer[filterEntry]

	// building is true while a build task owns the slot. Only the goroutine
	// whose CompareAndSwap(false, true) succeeded may launch a build, and
	// the build resets it once it ran.
	building atomic.Bool

	// failed is set when the last build failed, making the slot eligible
	// for a retry on the next lookup.
	failed atomic.Bool
}

// segmentTable maps field names to slots for one segment.
type segmentTable struct {
	id    SegmentID
	slots sync.Map // string -> *fieldSlot

	// mu orders publishes against retire; never held while enumerating.
	mu      sync.Mutex
	retired bool
}

func newSegmentTable(id SegmentID) *segmentTable {
	return &segmentTable{id: id}
}

// slot returns the slot for field, creating it on first use. A new slot
// starts as None against liveDocs. When liveDocs < maxDocs the slot is
// created with building set, so its creator (created == true) owns the
// initial build.
func (t *segmentTable) slot(field string, liveDocs, maxDocs int) (s *fieldSlot, created bool) {
	if v, ok := t.slots.Load(field); ok {
		return v.(*fieldSlot), false
	}

	fresh := &fieldSlot{}
	fresh.entry.Store(&filterEntry{docCount: liveDocs, filter: membership.None})
	if liveDocs < maxDocs {
		fresh.building.Store(true)
	}

	v, loaded := t.slots.LoadOrStore(field, fresh)
	return v.(*fieldSlot), !loaded
}

// lookup returns the slot for field if present.
func (t *segmentTable) lookup(field string) (*fieldSlot, bool) {
	v, ok := t.slots.Load(field)
	if !ok {
		return nil, false
	}
	return v.(*fieldSlot), true
}

// publish replaces the entry of s unless the table has been retired or the
// memory reservation fails. Only the growth over the replaced entry is
// reserved; entries are only swapped under t.mu.
func (t *segmentTable) publish(s *fieldSlot, e *filterEntry, rc *resource.Controller) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.retired {
		return errTableRetired
	}

	var prev int64
	if old := s.entry.Load(); old != nil {
		prev = old.reserved
	}
	delta := e.reserved - prev
	if delta > 0 {
		if err := rc.AcquireMemory(delta); err != nil {
			return err
		}
	}

	s.entry.Store(e)
	if delta < 0 {
		rc.ReleaseMemory(-delta)
	}
	return nil
}

// retire marks the table dead and releases all reservations. It returns
// the number of entries and the filter bytes dropped.
func (t *segmentTable) retire(rc *resource.Controller) (entries int, bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.retired {
		return 0, 0
	}
	t.retired = true

	var reserved int64
	t.slots.Range(func(_, v any) bool {
		e := v.(*fieldSlot).entry.Load()
		entries++
		bytes += e.filter.SizeInBytes()
		reserved += e.reserved
		return true
	})
	rc.ReleaseMemory(reserved)
	return entries, bytes
}

// sizeInBytes sums the filters of the table, optionally for one field.
func (t *segmentTable) sizeInBytes(field string, all bool) int64 {
	if !all {
		s, ok := t.lookup(field)
		if !ok {
			return 0
		}
		return s.entry.Load().filter.SizeInBytes()
	}

	var total int64
	t.slots.Range(func(_, v any) bool {
		total += v.(*fieldSlot).entry.Load().filter.SizeInBytes()
		return true
	})
	return total
}
