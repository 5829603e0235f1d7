package async

import (
	"context"
	"fmt"
)

// Future is the eventual result of an asynchronous computation.
// Any number of goroutines may wait on the same Future.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Go runs fn on its own goroutine and returns its Future.
// A panic in fn completes the Future with an error wrapping ErrPanic.
// If ctx is already cancelled, fn is not called.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.result = zero
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already completed Future.
func Resolved[T any](result T, err error) *Future[T] {
	f := &Future[T]{result: result, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Await blocks until the computation completes or ctx is done.
// Giving up on ctx does not stop the computation; other waiters still get its result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed on completion.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports completion without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking; ok is false while still running.
func (f *Future[T]) Result() (result T, err error, ok bool) {
	if !f.IsComplete() {
		var zero T
		return zero, nil, false
	}
	return f.result, f.err, true
}

// WaitAll awaits every future and returns results in order.
// It stops at the first error, returning the results collected so far.
func WaitAll[T any](ctx context.Context, futures ...*Future[T]) ([]T, error) {
	results := make([]T, len(futures))
	for i, f := range futures {
		res, err := f.Await(ctx)
		results[i] = res
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
