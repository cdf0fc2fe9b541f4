// Package worker runs independent per-file jobs on a fixed number of
// goroutines while keeping results in input order.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one input with its outcome.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Done is false when the task was never run because ctx was cancelled.
	Done bool
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool is a generic worker pool.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool. Fewer than one worker means one.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Workers returns the effective concurrency.
func (p *Pool[T, R]) Workers() int {
	return p.workers
}

// Execute runs all inputs through the pool. Results are indexed like inputs.
// With a single worker inputs are processed sequentially on the calling
// goroutine.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i, in := range inputs {
		results[i].Input = in
	}

	if p.workers == 1 {
		for i := range inputs {
			if ctx.Err() != nil {
				break
			}
			p.run(ctx, results, i, 0)
		}
		return results
	}

	inputCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				p.run(ctx, results, idx, workerID)
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}

func (p *Pool[T, R]) run(ctx context.Context, results []Task[T, R], idx, workerID int) {
	result, err := p.process(ctx, results[idx].Input)
	results[idx].Result = result
	results[idx].Err = err
	results[idx].Done = true
	if err != nil {
		log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
	}
}
