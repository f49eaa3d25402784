package parallel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapLimitPreservesOrderAndCount(t *testing.T) {
	t.Parallel()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results := MapLimit(items, func(item int) (int, error) {
		return item * 2, nil
	}, 4, nil)

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, result := range results {
		if !result.Ok() {
			t.Fatalf("unexpected error at %d: %v", i, result.Err)
		}
		if result.Value != i*2 {
			t.Fatalf("result %d out of order: got %d", i, result.Value)
		}
	}
}

func TestMapLimitRespectsConcurrencyBound(t *testing.T) {
	t.Parallel()

	const limit = 3
	var active, peak int64

	items := make([]int, 40)
	MapLimit(items, func(int) (int, error) {
		current := atomic.AddInt64(&active, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return 0, nil
	}, limit, nil)

	if peak > limit {
		t.Fatalf("expected at most %d concurrent workers, saw %d", limit, peak)
	}
}

func TestMapLimitIsolatesFailures(t *testing.T) {
	t.Parallel()

	items := []int{0, 1, 2, 3, 4}
	results := MapLimit(items, func(item int) (string, error) {
		if item%2 == 1 {
			return "", fmt.Errorf("item %d failed", item)
		}
		return fmt.Sprintf("ok-%d", item), nil
	}, 2, nil)

	values, errs := Partition(results)
	if len(values) != 3 {
		t.Fatalf("expected 3 successes, got %d", len(values))
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(errs))
	}
	for i, result := range results {
		if (i%2 == 1) == result.Ok() {
			t.Fatalf("result %d has wrong outcome: %+v", i, result)
		}
	}
}

func TestMapLimitProgressIsMonotonicAndFinal(t *testing.T) {
	t.Parallel()

	items := make([]int, 35)
	var mu sync.Mutex
	var reports [][2]int

	MapLimit(items, func(item int) (int, error) {
		return item, nil
	}, 5, func(completed int, total int) {
		mu.Lock()
		reports = append(reports, [2]int{completed, total})
		mu.Unlock()
	})

	if len(reports) == 0 {
		t.Fatal("expected at least one progress report")
	}

	previous := -1
	for _, report := range reports {
		if report[0] < previous {
			t.Fatalf("progress went backwards: %d after %d", report[0], previous)
		}
		if report[1] != len(items) {
			t.Fatalf("expected total %d, got %d", len(items), report[1])
		}
		previous = report[0]
	}

	final := reports[len(reports)-1]
	if final[0] != len(items) {
		t.Fatalf("expected final report %d/%d, got %d/%d", len(items), len(items), final[0], final[1])
	}
}

func TestMapLimitEmptyInputStillReportsCompletion(t *testing.T) {
	t.Parallel()

	var reports int
	results := MapLimit(nil, func(int) (int, error) {
		return 0, errors.New("should not run")
	}, 4, func(completed int, total int) {
		reports++
		if completed != 0 || total != 0 {
			t.Fatalf("expected 0/0 report, got %d/%d", completed, total)
		}
	})

	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if reports != 1 {
		t.Fatalf("expected exactly one completion report, got %d", reports)
	}
}

func TestClampBoundsConcurrency(t *testing.T) {
	t.Parallel()

	if got := Clamp(0); got < minConcurrency || got > maxConcurrency {
		t.Fatalf("clamp(0) out of bounds: %d", got)
	}
	if got := Clamp(1); got != minConcurrency {
		t.Fatalf("expected %d for clamp(1), got %d", minConcurrency, got)
	}
	if got := Clamp(64); got != maxConcurrency {
		t.Fatalf("expected %d for clamp(64), got %d", maxConcurrency, got)
	}
	if got := Clamp(4); got != 4 {
		t.Fatalf("expected 4 to pass through, got %d", got)
	}
}
