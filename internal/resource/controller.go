package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Config holds resource limits.
type Config struct {
	// MaxInflight is the maximum number of concurrent queries.
	// If 0, queries are only counted.
	MaxInflight int64

	// MaxReloads is the maximum number of concurrent reloads.
	// If 0, defaults to 1.
	MaxReloads int64
}

// Controller manages server-wide limits.
type Controller struct {
	cfg Config

	querySem *semaphore.Weighted // nil if unlimited
	inflight atomic.Int64

	reloadSem *semaphore.Weighted
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxReloads <= 0 {
		cfg.MaxReloads = 1
	}

	c := &Controller{
		cfg:       cfg,
		reloadSem: semaphore.NewWeighted(cfg.MaxReloads),
	}
	if cfg.MaxInflight > 0 {
		c.querySem = semaphore.NewWeighted(cfg.MaxInflight)
	}
	return c
}

// TryAcquireQuery reserves a query slot without blocking.
func (c *Controller) TryAcquireQuery() bool {
	if c == nil {
		return true
	}
	if c.querySem != nil && !c.querySem.TryAcquire(1) {
		return false
	}
	c.inflight.Add(1)
	return true
}

// ReleaseQuery releases a query slot.
func (c *Controller) ReleaseQuery() {
	if c == nil {
		return
	}
	if c.querySem != nil {
		c.querySem.Release(1)
	}
	c.inflight.Add(-1)
}

// Inflight returns the number of queries currently admitted.
func (c *Controller) Inflight() int64 {
	if c == nil {
		return 0
	}
	return c.inflight.Load()
}

// MaxInflight returns the configured query limit (0 if unlimited).
func (c *Controller) MaxInflight() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxInflight
}

// AcquireReload waits for a reload slot.
func (c *Controller) AcquireReload(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.reloadSem.Acquire(ctx, 1)
}

// TryAcquireReload reserves a reload slot without blocking.
func (c *Controller) TryAcquireReload() bool {
	if c == nil {
		return true
	}
	return c.reloadSem.TryAcquire(1)
}

// ReleaseReload releases a reload slot.
func (c *Controller) ReleaseReload() {
	if c == nil {
		return
	}
	c.reloadSem.Release(1)
}
