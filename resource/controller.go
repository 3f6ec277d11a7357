// Package resource manages process-wide numeric limits: the number of
// concurrent search workers and the IO throughput available to
// background spill writes.
//
// Ordering contract: static limits must be applied before the first
// worker acquisition anywhere in the process; ApplyStatic fails once the
// controller is sealed by its first use. Dynamic limits (IO rate) may be
// adjusted at any time after construction.
package resource

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrAlreadyInitialized is returned when static limits are applied after
// the controller has been used.
var ErrAlreadyInitialized = errors.New("static limits must be applied before first use")

// Limits holds the static resource limits.
type Limits struct {
	// MaxSearchWorkers caps concurrent brute-force search workers.
	// If 0, defaults to GOMAXPROCS.
	MaxSearchWorkers int64

	// IOLimitBytesPerSec is the maximum IO throughput for background
	// spill writes. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages global resources shared by the search and blocking
// subsystems.
type Controller struct {
	workers    atomic.Pointer[semaphore.Weighted]
	maxWorkers atomic.Int64
	ioLimiter  atomic.Pointer[rate.Limiter]
	sealed     atomic.Bool
}

// NewController creates a controller with the given limits.
func NewController(limits Limits) *Controller {
	c := &Controller{}
	c.apply(limits)
	return c
}

func (c *Controller) apply(limits Limits) {
	workers := limits.MaxSearchWorkers
	if workers <= 0 {
		workers = int64(runtime.GOMAXPROCS(0))
	}
	c.maxWorkers.Store(workers)
	c.workers.Store(semaphore.NewWeighted(workers))

	if limits.IOLimitBytesPerSec > 0 {
		c.ioLimiter.Store(rate.NewLimiter(rate.Limit(limits.IOLimitBytesPerSec), int(limits.IOLimitBytesPerSec)))
	} else {
		c.ioLimiter.Store(nil)
	}
}

// ApplyStatic replaces the static limits. It fails once the controller
// has been sealed by its first worker acquisition.
func (c *Controller) ApplyStatic(limits Limits) error {
	if c.sealed.Load() {
		return ErrAlreadyInitialized
	}
	c.apply(limits)
	return nil
}

// SetIORate adjusts the IO throughput limit dynamically.
// A non-positive value removes the limit.
func (c *Controller) SetIORate(bytesPerSec int64) {
	if bytesPerSec > 0 {
		c.ioLimiter.Store(rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec)))
	} else {
		c.ioLimiter.Store(nil)
	}
}

// MaxWorkers returns the configured worker cap.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return runtime.GOMAXPROCS(0)
	}
	return int(c.maxWorkers.Load())
}

// AcquireWorker reserves one search worker, blocking until one is
// available or ctx is canceled. The first acquisition seals the static
// limits.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.sealed.Store(true)
	return c.workers.Load().Acquire(ctx, 1)
}

// ReleaseWorker releases a reserved search worker.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Load().Release(1)
}

// WaitIO blocks until the caller may perform an IO burst of n bytes.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil {
		return nil
	}
	limiter := c.ioLimiter.Load()
	if limiter == nil || n <= 0 {
		return nil
	}
	if burst := limiter.Burst(); n > burst {
		n = burst
	}
	return limiter.WaitN(ctx, n)
}
