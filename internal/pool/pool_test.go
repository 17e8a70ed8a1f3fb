package pool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"seqmart/internal/pool"
)

func TestMapCompletesEveryItemDespiteFailures(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	failing := errors.New("boom")

	results := pool.Map(context.Background(), items, func(_ context.Context, item int) error {
		if item%3 == 0 {
			return fmt.Errorf("item %d: %w", item, failing)
		}
		return nil
	}, pool.Options{Concurrency: 4})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, res := range results {
		if res.Item != i {
			t.Fatalf("result %d holds item %d, order lost", i, res.Item)
		}
		if i%3 == 0 {
			if !errors.Is(res.Err, failing) {
				t.Fatalf("item %d: expected failure, got %v", i, res.Err)
			}
		} else if res.Err != nil {
			t.Fatalf("item %d: unexpected error %v", i, res.Err)
		}
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	const limit = 3
	var running, peak atomic.Int64

	items := make([]int, 32)
	pool.Map(context.Background(), items, func(context.Context, int) error {
		now := running.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		defer running.Add(-1)
		return nil
	}, pool.Options{Concurrency: limit})

	if got := peak.Load(); got > limit {
		t.Fatalf("observed %d concurrent executions, limit %d", got, limit)
	}
}

func TestMapReportsProgressCounter(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	items := []string{"a", "b", "c", "d"}
	pool.Map(context.Background(), items, func(context.Context, string) error {
		return nil
	}, pool.Options{
		Concurrency: 2,
		OnProgress: func(completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != len(items) {
				t.Errorf("total = %d, want %d", total, len(items))
			}
			seen = append(seen, completed)
		},
	})

	if len(seen) != len(items) {
		t.Fatalf("expected %d progress calls, got %d", len(items), len(seen))
	}
	final := seen[len(seen)-1]
	if final != len(items) {
		t.Fatalf("final completed = %d, want %d", final, len(items))
	}
}

func TestMapProgressCounterIsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	items := make([]int, 64)
	pool.Map(context.Background(), items, func(context.Context, int) error {
		return nil
	}, pool.Options{
		Concurrency: 8,
		OnProgress: func(completed, total int) {
			mu.Lock()
			seen = append(seen, completed)
			mu.Unlock()
		},
	})

	if len(seen) != len(items) {
		t.Fatalf("expected %d progress calls, got %d", len(items), len(seen))
	}
	for i, got := range seen {
		if got != i+1 {
			t.Fatalf("progress call %d reported completed = %d, want %d", i, got, i+1)
		}
	}
}

func TestMapCancelledContextFailsUnstartedItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Map(ctx, []int{1, 2, 3}, func(context.Context, int) error {
		return nil
	}, pool.Options{Concurrency: 1})

	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", res.Err)
		}
	}
}

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	chunks := pool.Chunk(items, 2)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2]) != 1 || chunks[2][0] != 5 {
		t.Fatalf("unexpected tail chunk: %v", chunks[2])
	}
	if got := pool.Chunk([]int{}, 8); len(got) != 0 {
		t.Fatalf("empty input should yield no chunks, got %v", got)
	}
}
