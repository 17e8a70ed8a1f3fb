// Package pool runs independent per-item work through a bounded worker pool.
// One item's failure never aborts the batch: failures are collected per item
// and the caller decides what to log or retry. Completion order is
// unspecified.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result pairs an item with the outcome of its execution.
type Result[T any] struct {
	Item T
	Err  error
}

// Options controls dispatch.
type Options struct {
	// Concurrency bounds the number of items executing at once. Values
	// below 1 are treated as 1.
	Concurrency int
	// OnProgress, when set, observes the completion counter. It is called
	// once per finished item with the number completed so far and the total,
	// from whichever worker finished; calls are serialized.
	OnProgress func(completed, total int)
}

// Map executes fn for every item with at most opts.Concurrency concurrent
// executions and returns one Result per item, in submission order. A
// cancelled context fails the remaining unstarted items with ctx.Err() but
// items already running are left to finish.
func Map[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts Options) []Result[T] {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result[T], len(items))
	total := len(items)

	var progressMu sync.Mutex
	completed := 0
	finish := func(i int, err error) {
		results[i].Err = err
		if opts.OnProgress == nil {
			return
		}
		// Incrementing under the same lock keeps the reported counter
		// monotonic across workers.
		progressMu.Lock()
		completed++
		opts.OnProgress(completed, total)
		progressMu.Unlock()
	}

	var group errgroup.Group
	group.SetLimit(concurrency)
	for i, item := range items {
		results[i].Item = item
		i, item := i, item
		if err := ctx.Err(); err != nil {
			finish(i, err)
			continue
		}
		group.Go(func() error {
			finish(i, fn(ctx, item))
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// Chunk splits items into batches of at most size elements, preserving order.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
