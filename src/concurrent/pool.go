// Package concurrent bounds the parallelism of independent agent sessions,
// chiefly the research fan-out that runs one conversation per topic.
package concurrent

import (
	"context"
	"sync"
)

const defaultMaxWorkers = 10

// WorkerPool caps how many sessions run at once. The zero value is not
// usable; construct with NewWorkerPool.
type WorkerPool struct {
	sem chan struct{}
}

func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &WorkerPool{sem: make(chan struct{}, maxWorkers)}
}

// Do runs fn once a worker slot is free, or returns the context error if
// cancellation wins the race for a slot.
func (wp *WorkerPool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.sem <- struct{}{}:
		defer func() { <-wp.sem }()
		return fn(ctx)
	}
}

// ParallelMap runs fn over items with bounded concurrency and collects the
// results in input order. All items are attempted; the first error observed
// in input order is returned alongside whatever results completed.
func ParallelMap[T, R any](ctx context.Context, pool *WorkerPool, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()
			errs[idx] = pool.Do(ctx, func(ctx context.Context) error {
				var err error
				results[idx], err = fn(ctx, val)
				return err
			})
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ParallelForEach runs fn over items with bounded concurrency, returning
// the first error observed in input order.
func ParallelForEach[T any](ctx context.Context, pool *WorkerPool, items []T, fn func(ctx context.Context, item T) error) error {
	_, err := ParallelMap(ctx, pool, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
