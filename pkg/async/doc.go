// Package async provides small generic helpers for running computations
// concurrently and waiting for their completion.
//
// A Future is the eventual result of an asynchronous operation. It is either
// started with Go or Async, or created pending with NewFuture and completed
// later by whoever owns the work. Several goroutines may wait on the same
// Future; this is what the connection pool uses to make concurrent creations
// of the same connection share one attempt.
//
//	f := async.Go(ctx, func(ctx context.Context) (*sql.DB, error) {
//	    return open(ctx)
//	})
//	db, err := f.Await(ctx)
//
// WaitAll collects the results of several futures in input order.
//
// Awaiting with a context only bounds the wait. The underlying computation
// keeps running and will still complete the Future.
package async
