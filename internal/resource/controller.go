package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation can never fit the limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for cached bytes.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec caps bytes fetched from backends per second.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages the memory and IO budgets.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes, waiting until enough memory is released.
// Requests larger than the limit fail with ErrMemoryLimitExceeded.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return ErrMemoryLimitExceeded
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split so they never fail outright.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
