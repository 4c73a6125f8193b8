package memseg

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segbloom"
)

// Doc maps field names to the keys a document holds in each field.
type Doc map[string][]string

// Builder accumulates documents for a Segment. It is not safe for concurrent use.
type Builder struct {
	postings map[string]map[string]*roaring.Bitmap
	numDocs  uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{postings: make(map[string]map[string]*roaring.Bitmap)}
}

// Add appends a document and returns its document id.
func (b *Builder) Add(doc Doc) uint32 {
	id := b.numDocs
	b.numDocs++
	for field, keys := range doc {
		terms, ok := b.postings[field]
		if !ok {
			terms = make(map[string]*roaring.Bitmap)
			b.postings[field] = terms
		}
		for _, k := range keys {
			bm, ok := terms[k]
			if !ok {
				bm = roaring.New()
				terms[k] = bm
			}
			bm.Add(id)
		}
	}
	return id
}

// Build freezes the documents into a new Segment with a fresh identity.
func (b *Builder) Build() *Segment {
	fields := make(map[string]*fieldPostings, len(b.postings))
	for name, terms := range b.postings {
		fp := &fieldPostings{
			terms:    make([]string, 0, len(terms)),
			postings: make(map[string]*roaring.Bitmap, len(terms)),
		}
		for term, bm := range terms {
			bm.RunOptimize()
			fp.terms = append(fp.terms, term)
			fp.postings[term] = bm
		}
		slices.Sort(fp.terms)
		fields[name] = fp
	}

	live := roaring.New()
	live.AddRange(0, uint64(b.numDocs))

	return &Segment{
		id:     segbloom.NewSegmentID(),
		fields: fields,
		live:   live,
	}
}

type fieldPostings struct {
	terms    []string // sorted
	postings map[string]*roaring.Bitmap
}

// Segment is an immutable in-memory segment. Only the live-documents bitmap
// changes after Build.
type Segment struct {
	id     segbloom.SegmentID
	fields map[string]*fieldPostings

	mu        sync.RWMutex
	live      *roaring.Bitmap
	closed    bool
	listeners []func(segbloom.SegmentID)

	scans atomic.Int64
}

var _ segbloom.Segment = (*Segment)(nil)

// ID implements segbloom.Segment.
func (s *Segment) ID() segbloom.SegmentID {
	return s.id
}

// LiveDocs implements segbloom.Segment.
func (s *Segment) LiveDocs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.live.GetCardinality())
}

// Delete marks docID deleted. It reports whether the document was live.
func (s *Segment) Delete(docID uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.live.CheckedRemove(docID)
}

// IsLive reports whether docID is live.
func (s *Segment) IsLive(docID uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Contains(docID)
}

// Lookup returns the live documents holding key in field.
func (s *Segment) Lookup(field, key string) (*roaring.Bitmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, segbloom.ErrSegmentClosed
	}
	fp, ok := s.fields[field]
	if !ok {
		return roaring.New(), nil
	}
	bm, ok := fp.postings[key]
	if !ok {
		return roaring.New(), nil
	}
	return roaring.And(bm, s.live), nil
}

// Fields returns the field names in sorted order.
func (s *Segment) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Keys implements segbloom.Segment. Terms are yielded in sorted order;
// terms whose documents are all deleted are still included.
func (s *Segment) Keys(ctx context.Context, field string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		s.scans.Add(1)
		fp, ok := s.fields[field]
		if !ok {
			return
		}
		for _, term := range fp.terms {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if s.isClosed() {
				yield(nil, fmt.Errorf("memseg %d: %w", s.id, segbloom.ErrSegmentClosed))
				return
			}
			if !yield([]byte(term), nil) {
				return
			}
		}
	}
}

// Scans returns how many key enumerations were started.
func (s *Segment) Scans() int64 {
	return s.scans.Load()
}

// OnClose implements segbloom.Segment.
func (s *Segment) OnClose(fn func(segbloom.SegmentID)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn(s.id)
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Segment) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close closes the segment and runs the close listeners once.
// Safe to call more than once.
func (s *Segment) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(s.id)
	}
	return nil
}
