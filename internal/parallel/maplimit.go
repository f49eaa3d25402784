// Package parallel provides a bounded-concurrency map utility used to
// spread metadata extraction and cover work across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const minConcurrency = 2

const maxConcurrency = 8

// Progress is reported every progressStep completions and once at the
// end, to keep callback overhead away from per-item cost.
const progressStep = 10

// Result holds the outcome for one input item. Exactly one of Value or
// Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// Ok reports whether the item succeeded.
func (r Result[R]) Ok() bool {
	return r.Err == nil
}

// DefaultConcurrency derives a worker bound from available CPU
// parallelism, clamped to a sane range.
func DefaultConcurrency() int {
	return Clamp(runtime.NumCPU())
}

func Clamp(concurrency int) int {
	if concurrency < minConcurrency {
		return minConcurrency
	}
	if concurrency > maxConcurrency {
		return maxConcurrency
	}
	return concurrency
}

// MapLimit runs worker over every item with at most limit concurrent
// invocations. The returned slice corresponds one-to-one with items by
// index. A failing worker invocation never aborts its siblings; the
// error lands in that item's Result.
func MapLimit[T any, R any](items []T, worker func(T) (R, error), limit int, onProgress func(completed int, total int)) []Result[R] {
	total := len(items)
	results := make([]Result[R], total)
	if total == 0 {
		if onProgress != nil {
			onProgress(0, 0)
		}
		return results
	}

	limit = Clamp(limit)
	if limit > total {
		limit = total
	}

	var wg sync.WaitGroup
	var completed atomic.Int64
	var progressMu sync.Mutex
	lastReported := 0
	semaphore := make(chan struct{}, limit)

	for i := range items {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			value, err := worker(items[index])
			results[index] = Result[R]{Value: value, Err: err}

			done := int(completed.Add(1))
			if onProgress == nil || (done%progressStep != 0 && done != total) {
				return
			}

			// Completions race; never report a count below one already
			// delivered.
			progressMu.Lock()
			if done > lastReported {
				lastReported = done
				onProgress(done, total)
			}
			progressMu.Unlock()
		}(i)
	}

	wg.Wait()
	return results
}

// Partition splits results into successful values and errors, keeping
// the relative order of each side.
func Partition[R any](results []Result[R]) ([]R, []error) {
	values := make([]R, 0, len(results))
	errs := make([]error, 0)
	for _, result := range results {
		if result.Ok() {
			values = append(values, result.Value)
		} else {
			errs = append(errs, result.Err)
		}
	}
	return values, errs
}
