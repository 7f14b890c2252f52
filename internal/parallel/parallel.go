package parallel

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a caller passes a limit below one.
const DefaultConcurrency = 4

// Result holds the outcome of a parallel task.
type Result[T any] struct {
	Index   int
	Value   T
	Err     error
	Elapsed time.Duration
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Task is a function that runs in parallel.
type Task[T any] func(ctx context.Context) (T, error)

// Run executes tasks in parallel with the given concurrency limit and returns
// results in the order tasks were submitted. A failing task never cancels its
// siblings; the only error returned is ctx's, when it is cancelled before all
// tasks finish.
func Run[T any](ctx context.Context, tasks []Task[T], concurrency int) ([]Result[T], error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result[T], len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		if ctx.Err() != nil {
			for j := i; j < len(tasks); j++ {
				results[j] = Result[T]{Index: j, Err: ctx.Err()}
			}
			break
		}
		g.Go(func() error {
			start := time.Now()
			v, err := task(ctx)
			results[i] = Result[T]{Index: i, Value: v, Err: err, Elapsed: time.Since(start)}
			return nil // never fail the group; collect results instead
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}
