package dispatch

import (
	"context"
	"time"
)

// Item is one unit of work in a staggered batch.
type Item struct {
	ID  string
	Run func(ctx context.Context) error
}

// Result records the outcome for a single item. Err is nil on success;
// items skipped because the batch context ended carry the context error.
type Result struct {
	ID  string
	Err error
}

// Dispatcher runs a batch strictly sequentially with a fixed delay between
// items. The delay exists to pace outbound sends, not as throughput control;
// item N+1 starts Delay after item N finishes regardless of its outcome.
type Dispatcher struct {
	Delay time.Duration
}

func New(delay time.Duration) *Dispatcher {
	return &Dispatcher{Delay: delay}
}

// Run executes every item in order and returns one Result per item, in the
// same order. A canceled context stops the loop; remaining items are reported
// with ctx.Err() rather than silently dropped.
func (d *Dispatcher) Run(ctx context.Context, items []Item) []Result {
	results := make([]Result, 0, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for _, rest := range items[i:] {
				results = append(results, Result{ID: rest.ID, Err: err})
			}
			break
		}

		if i > 0 && d.Delay > 0 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				for _, rest := range items[i:] {
					results = append(results, Result{ID: rest.ID, Err: ctx.Err()})
				}
				return results
			}
		}

		results = append(results, Result{ID: item.ID, Err: item.Run(ctx)})
	}

	return results
}

// Succeeded counts the results without an error.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
