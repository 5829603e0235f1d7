// Package async provides a generic Future for computations that many callers
// wait on.
//
// Go starts a function on its own goroutine and returns a *Future right away.
// Waiters call Await with their own context: a waiter that gives up only stops
// waiting, the computation itself keeps running for everyone else.
//
//	f := async.Go(ctx, func(ctx context.Context) (*Profile, error) {
//		return api.Profile(ctx)
//	})
//
//	p, err := f.Await(reqCtx)
//
// Panics inside the function are recovered and reported as errors wrapping
// ErrPanic, so a faulty loader cannot take the process down.
package async
