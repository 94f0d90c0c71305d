// Package bulk runs one independent commit operation per record with
// bounded fan-out and aggregates the settled outcomes.
package bulk

import (
	"context"
	"fmt"
	"sync"
)

// DefaultConcurrency bounds in-flight commits when the caller does
// not choose a limit.
const DefaultConcurrency = 5

// CommitFunc performs one create/send call for a single record. It
// must be safe to invoke concurrently.
type CommitFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Outcome records how one submitted record settled.
type Outcome[R any] struct {
	Result R
	Err    error
}

// Succeeded reports whether the commit settled without error.
func (o Outcome[R]) Succeeded() bool {
	return o.Err == nil
}

// Summary aggregates a finished batch. It is built only after every
// submitted commit has settled and is not modified afterwards.
// Outcomes preserves submission order so failures correlate back to
// input records by index.
type Summary[R any] struct {
	Succeeded int
	Failed    int
	Outcomes  []Outcome[R]
}

// Run commits every item through fn, at most concurrency at a time,
// and returns once all commits have settled. A failed commit never
// aborts its siblings or the collection of completed outcomes.
//
// Once the batch is submitted, individual commits are not cancelable
// from this layer: fn runs under a detached context, so a caller
// abort only stops the caller from consuming the summary, it does not
// retract issued requests.
func Run[T, R any](ctx context.Context, items []T, concurrency int, fn CommitFunc[T, R]) Summary[R] {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return Summary[R]{Outcomes: outcomes}
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	ctx = context.WithoutCancel(ctx)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range items {
		sem <- struct{}{}
		wg.Add(1)

		go func(i int) {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i].Err = fmt.Errorf("commit panicked: %v", r)
				}
				<-sem
				wg.Done()
			}()

			outcomes[i].Result, outcomes[i].Err = fn(ctx, items[i])
		}(i)
	}

	wg.Wait()

	summary := Summary[R]{Outcomes: outcomes}
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
