// Package async defines a pull-based iteration contract for sequences whose
// elements may depend on in-flight asynchronous work, together with the
// producers and consumers built on it.
//
// A consumer drives an Iterator in rounds: it asks whether a next element
// exists (OnHasNext without blocking, HasNext when it is willing to wait),
// and once that resolves true it consumes exactly one element with Next.
// Cancel tells the producer no further elements will be requested.
//
// # Producers
//
//   - NonAsync: wraps an eager Source (FromSlice, FromFunc); every check
//     resolves immediately.
//   - FromFetch: runs a fetch function on its own goroutine per round.
//   - Guard: strict state machine over any producer.
//
// # Consumers
//
//   - Collect, ForEach, All: drain an iterator, cancelling it on early exit.
//
// # Usage
//
//	it := async.NonAsync[int](async.FromSlice([]int{1, 2, 3}))
//	for {
//	    ok, err := it.HasNext(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    v, _ := it.Next()
//	    fmt.Println(v)
//	}
//
// Middleware (WithLogging, WithMetrics, WithTracing) decorates any producer
// without changing its observable behavior.
package async
