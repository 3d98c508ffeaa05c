package planner

import (
	"context"
	"sync"

	"github.com/nicktill/coltsdb/internal/table"
)

// Executor runs a plan's steps concurrently over a fixed-size worker pool:
// one goroutine per (metric, chunk) pair, bounded the way columnar stores
// typically bound concurrent transaction work, with a pool sized to the
// number of steps in flight rather than one goroutine per row.
type Executor struct {
	workers int
}

// NewExecutor returns an Executor that runs at most workers steps at once.
// workers <= 0 is treated as 1.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = 1
	}
	return &Executor{workers: workers}
}

// Run executes every step in steps against tbl, streaming each StepResult on
// the returned channel as soon as it's ready (not in step order). The
// channel is closed once every step has completed or ctx is canceled,
// whichever comes first.
func (e *Executor) Run(ctx context.Context, tbl *table.Table, steps []PlanStep) <-chan StepResult {
	out := make(chan StepResult, e.workers)

	go func() {
		defer close(out)

		sem := make(chan struct{}, e.workers)
		var wg sync.WaitGroup

		for _, step := range steps {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(step PlanStep) {
				defer wg.Done()
				defer func() { <-sem }()

				result := Execute(step, tbl)
				select {
				case out <- result:
				case <-ctx.Done():
				}
			}(step)
		}

		wg.Wait()
	}()

	return out
}
