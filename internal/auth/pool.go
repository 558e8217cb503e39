package auth

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// HashPool bounds the number of password hash computations running at once.
// Callers for different users proceed in parallel up to the pool size.
type HashPool struct {
	sem  *semaphore.Weighted
	size int
}

// NewHashPool creates a pool with the given number of slots; workers <= 0
// uses GOMAXPROCS.
func NewHashPool(workers int) *HashPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &HashPool{
		sem:  semaphore.NewWeighted(int64(workers)),
		size: workers,
	}
}

func (p *HashPool) Size() int {
	return p.size
}

// Do runs fn once a slot is free, or returns ctx.Err() if ctx ends first.
func (p *HashPool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}
