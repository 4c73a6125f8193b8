package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the memory limit.
var ErrMemoryLimitExceeded = errors.New("filter memory limit exceeded")

// Config holds resource limits for filter construction.
type Config struct {
	// MemoryLimitBytes caps the bytes held by published filters.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxConcurrentBuilds bounds background filter builds running at once.
	// If 0, defaults to 1.
	MaxConcurrentBuilds int64

	// ScanBytesPerSec throttles key enumeration during builds.
	// If 0, unlimited.
	ScanBytesPerSec int64
}

// Controller governs memory, build concurrency and scan throughput.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	buildSem *semaphore.Weighted

	scanLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentBuilds <= 0 {
		cfg.MaxConcurrentBuilds = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxConcurrentBuilds),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.ScanBytesPerSec > 0 {
		c.scanLimiter = rate.NewLimiter(rate.Limit(cfg.ScanBytesPerSec), int(cfg.ScanBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes for a filter about to be published.
// Non-blocking: returns ErrMemoryLimitExceeded instead of waiting.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns a reservation made with AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured limit (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireBuild reserves a background build slot, blocking while all are busy.
func (c *Controller) AcquireBuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.buildSem.Acquire(ctx, 1)
}

// TryAcquireBuild reserves a build slot without blocking.
func (c *Controller) TryAcquireBuild() bool {
	if c == nil {
		return true
	}
	return c.buildSem.TryAcquire(1)
}

// ReleaseBuild releases a build slot.
func (c *Controller) ReleaseBuild() {
	if c == nil {
		return
	}
	c.buildSem.Release(1)
}

// AcquireScan waits until the scan limit admits n more bytes of keys.
// Requests larger than the burst are clamped to it.
func (c *Controller) AcquireScan(ctx context.Context, n int) error {
	if c == nil || c.scanLimiter == nil || n <= 0 {
		return nil
	}
	if b := c.scanLimiter.Burst(); n > b {
		n = b
	}
	return c.scanLimiter.WaitN(ctx, n)
}
