package propagation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// ThreadCount is the default worker count for batch operations.
func ThreadCount() int {
	return runtime.NumCPU()
}

// job is one index of a batch.
type job struct {
	index int
}

// jobResult is the outcome of a single batch call.
type jobResult struct {
	index int
	err   error
}

// WorkerPool runs batch work on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers. A
// count below one uses ThreadCount.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = ThreadCount()
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Run calls fn for every index in [0, n) across the pool's workers. fn must
// only write to state owned by its index. The returned slice holds each
// call's error at its index.
//
// When ctx is cancelled no new indices are started and Run returns
// ctx.Err(); indices that never ran keep a nil error.
func (wp *WorkerPool) Run(ctx context.Context, n int, fn func(i int) error) ([]error, error) {
	if n == 0 {
		return nil, ctx.Err()
	}
	start := time.Now()

	jobs := make(chan job, wp.workers*2)
	results := make(chan jobResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := jobResult{index: j.index, err: fn(j.index)}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- job{index: i}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	errs := make([]error, n)
	var failed int
	for r := range results {
		if r.err != nil {
			failed++
			errs[r.index] = r.err
		}
	}

	wp.logger.Debug("batch complete",
		"jobs", n,
		"failed", failed,
		"workers", wp.workers,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return errs, ctx.Err()
}
