package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("executor: pool closed")

	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("executor: queue full")
)

// PanicHandler receives panics recovered from tasks.
type PanicHandler func(recovered any, stack []byte)

// WorkerPool manages a fixed pool of goroutines for background tasks.
type WorkerPool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
	onPanic    PanicHandler
	completed  atomic.Int64
}

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPanicHandler installs a handler for panics escaping tasks.
// Without one, panics are printed to stderr and the worker keeps running.
func WithPanicHandler(h PanicHandler) PoolOption {
	return func(wp *WorkerPool) {
		wp.onPanic = h
	}
}

// NewWorkerPool creates a worker pool with numWorkers goroutines.
// If numWorkers <= 0, GOMAXPROCS is used.
func NewWorkerPool(numWorkers int, opts ...PoolOption) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers*2),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(wp)
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain queued work before exiting.
			for {
				select {
				case task, ok := <-wp.workCh:
					if !ok {
						return
					}
					wp.run(task)
				default:
					return
				}
			}
		case task, ok := <-wp.workCh:
			if !ok {
				return
			}
			wp.run(task)
		}
	}
}

func (wp *WorkerPool) run(task func()) {
	defer wp.completed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			if wp.onPanic != nil {
				wp.onPanic(r, debug.Stack())
				return
			}
			fmt.Fprintf(os.Stderr, "PANIC RECOVERED in background task: %v\n%s\n", r, debug.Stack())
		}
	}()
	task()
}

// Submit enqueues task and returns once it is queued.
//
// Blocks while the queue is full. Returns ErrPoolClosed after Close, or the
// context error if ctx is done before the task could be queued.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues task without waiting for queue space.
// Returns ErrQueueFull if the queue is full and ErrPoolClosed after Close.
func (wp *WorkerPool) TrySubmit(task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case wp.workCh <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Completed returns how many tasks have finished running.
func (wp *WorkerPool) Completed() int64 {
	return wp.completed.Load()
}

// Close stops accepting work, runs what is queued and waits for the workers.
// Safe to call more than once.
func (wp *WorkerPool) Close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
