// Package midi downloads the MIDI renditions listed in the lute tablature table.
package midi

import (
	"context"

	"github.com/franz/lute-composers/internal/util"
	"github.com/sourcegraph/conc/pool"
)

// Pool runs a batch of tasks on a fixed number of goroutines. Every task
// runs to completion; a failing task never cancels the others.
type Pool struct {
	limit int
}

// NewPool creates a pool with the given worker count (DefaultConcurrency if <= 0)
func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = util.DefaultConcurrency()
	}
	return &Pool{limit: limit}
}

// Limit returns the worker count
func (p *Pool) Limit() int {
	return p.limit
}

// Run calls task for indexes 0..n-1 and returns each task's error at its
// index. Tasks not yet started when ctx is cancelled get ctx's error.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)

	workers := pool.New().WithMaxGoroutines(p.limit).WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		workers.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = task(ctx, i)
			return nil
		})
	}
	_ = workers.Wait()

	return errs
}
