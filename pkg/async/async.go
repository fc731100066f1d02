package async

import (
	"context"
	"sync"
)

// Future represents the result of an asynchronous computation.
// A Future is completed exactly once; later completions are ignored.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// NewFuture returns a pending future to be completed with Complete.
func NewFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// Complete stores the outcome and wakes every waiter.
// It reports whether this call completed the future.
func (f *Future[U]) Complete(result U, err error) bool {
	completed := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}

// Done is closed once the future is complete.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Await waits for completion or for ctx to be done, whichever comes first.
// Giving up on the wait does not cancel the computation.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// IsComplete checks if the future is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go runs fn in its own goroutine and returns a Future for its result.
func Go[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := NewFuture[U]()

	go func() {
		// Early exit prevents running work for a context that is already gone
		if err := ctx.Err(); err != nil {
			var zero U
			f.Complete(zero, err)
			return
		}
		f.Complete(fn(ctx))
	}()

	return f
}

// Async is Go with an explicit parameter.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	return Go(ctx, func(ctx context.Context) (U, error) {
		return fn(ctx, param)
	})
}

// WaitAll waits for every future and returns the results in input order.
// The first error in input order is returned; results of futures that
// completed successfully are still populated.
func WaitAll[U any](ctx context.Context, futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var firstErr error

	for i, future := range futures {
		result, err := future.Await(ctx)
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, firstErr
}
