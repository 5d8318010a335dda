package concurrent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var active, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Fatalf("concurrency exceeded pool size: peak %d", got)
	}
}

func TestWorkerPoolDoReturnsContextError(t *testing.T) {
	pool := NewWorkerPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Do(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestParallelMapPreservesOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	items := []int{1, 2, 3, 4, 5}
	results, err := ParallelMap(context.Background(), pool, items, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("ParallelMap returned error: %v", err)
	}
	for i, n := range items {
		if results[i] != n*n {
			t.Fatalf("result %d out of order: got %d", i, results[i])
		}
	}
}

func TestParallelMapReportsFirstErrorInOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	errSecond := errors.New("second failed")
	_, err := ParallelMap(context.Background(), pool, []int{0, 1, 2}, func(_ context.Context, n int) (int, error) {
		if n >= 1 {
			return 0, errSecond
		}
		return n, nil
	})
	if !errors.Is(err, errSecond) {
		t.Fatalf("expected %v, got %v", errSecond, err)
	}
}

func TestParallelForEachRunsEveryItem(t *testing.T) {
	pool := NewWorkerPool(3)
	var count int32
	err := ParallelForEach(context.Background(), pool, []string{"a", "b", "c", "d"}, func(_ context.Context, _ string) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("ParallelForEach returned error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 executions, got %d", count)
	}
}

func TestParallelMapEmptyInput(t *testing.T) {
	pool := NewWorkerPool(1)
	results, err := ParallelMap(context.Background(), pool, nil, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if err != nil || results != nil {
		t.Fatalf("expected nil results and error, got %v, %v", results, err)
	}
}
