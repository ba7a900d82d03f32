// Package workers runs independent per-item computations on a bounded set of goroutines.
package workers

import (
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines for parallel per-asset work
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// A non-positive count defaults to the number of CPUs.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the configured number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Map applies fn to every item in parallel and returns the results in input order.
// It returns only after every item has been processed, so callers get a full barrier.
// fn receives the item's index and must not share mutable state with other calls.
func Map[T, R any](wp *WorkerPool, items []T, fn func(index int, item T) R) []R {
	numItems := len(items)
	if numItems == 0 {
		return []R{}
	}

	jobs := make(chan int, numItems)
	results := make([]R, numItems)

	numActualWorkers := wp.numWorkers
	if numItems < numActualWorkers {
		numActualWorkers = numItems // Don't spawn more workers than items
	}

	var wg sync.WaitGroup
	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// Each worker writes only its own slot
				results[idx] = fn(idx, items[idx])
			}
		}()
	}

	for idx := range items {
		jobs <- idx
	}
	close(jobs)

	wg.Wait()
	return results
}
