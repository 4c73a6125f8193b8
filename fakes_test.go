package segbloom

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// fakeSegment is a Segment whose live count, keys and failures are set by
// the test. It counts enumerations and close registrations.
type fakeSegment struct {
	id   SegmentID
	live atomic.Int64

	mu        sync.Mutex
	keys      map[string][]string
	failWith  error
	panicWith any
	gate      chan struct{}
	closed    bool
	listeners []func(SegmentID)

	scans         atomic.Int64
	registrations atomic.Int64
}

func newFakeSegment(live int, keys map[string][]string) *fakeSegment {
	s := &fakeSegment{id: NewSegmentID(), keys: keys}
	s.live.Store(int64(live))
	return s
}

func (s *fakeSegment) ID() SegmentID { return s.id }

func (s *fakeSegment) LiveDocs() int { return int(s.live.Load()) }

func (s *fakeSegment) setLive(n int) { s.live.Store(int64(n)) }

func (s *fakeSegment) setFailure(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

func (s *fakeSegment) setPanic(v any) {
	s.mu.Lock()
	s.panicWith = v
	s.mu.Unlock()
}

// block makes the next enumerations wait until the returned func is called.
func (s *fakeSegment) block() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *fakeSegment) Keys(ctx context.Context, field string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		s.scans.Add(1)

		s.mu.Lock()
		keys := s.keys[field]
		failWith, panicWith, gate := s.failWith, s.panicWith, s.gate
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if panicWith != nil {
			panic(panicWith)
		}
		for _, k := range keys {
			if !yield([]byte(k), nil) {
				return
			}
		}
		if failWith != nil {
			yield(nil, failWith)
		}
	}
}

func (s *fakeSegment) OnClose(fn func(SegmentID)) {
	s.registrations.Add(1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn(s.id)
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *fakeSegment) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(s.id)
	}
}

// manualExecutor queues tasks until runAll is called and counts submissions.
type manualExecutor struct {
	mu      sync.Mutex
	tasks   []func()
	submits atomic.Int64
	err     error
}

func (e *manualExecutor) Submit(_ context.Context, task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.submits.Add(1)
	e.tasks = append(e.tasks, task)
	return nil
}

func (e *manualExecutor) setErr(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

func (e *manualExecutor) runAll() int {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

func skuKeys(n int) map[string][]string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "sku-" + string(rune('a'+i%26)) + string(rune('a'+i/26%26))
	}
	return map[string][]string{"sku": keys}
}
