package async

import (
	"context"
	"sync"
)

// Future is a handle to a value that is produced at most once, possibly on
// another goroutine. A resolved future never changes.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	val       T
	err       error
	callbacks []func(T, error)
}

// Promise is the write side of a Future.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise returns an unresolved Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{f: &Future[T]{done: make(chan struct{})}}
}

// Completed returns a future already resolved to v.
func Completed[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.complete(v, nil)
	return f
}

// Failed returns a future already resolved with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	f := &Future[T]{done: make(chan struct{})}
	f.complete(zero, err)
	return f
}

// Future returns the read side of the promise.
func (p *Promise[T]) Future() *Future[T] { return p.f }

// Resolve completes the future with v. It returns false if the future was
// already resolved.
func (p *Promise[T]) Resolve(v T) bool { return p.f.complete(v, nil) }

// Reject completes the future with err. It returns false if the future was
// already resolved.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.f.complete(zero, err)
}

// Complete resolves the future with v or err, whichever the producer has.
func (p *Promise[T]) Complete(v T, err error) bool { return p.f.complete(v, err) }

func (f *Future[T]) complete(v T, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done returns a channel that is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Poll returns the result without waiting. ok is false while the future is
// unresolved.
func (f *Future[T]) Poll() (val T, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.resolved {
		var zero T
		return zero, false, nil
	}
	return f.val, true, f.err
}

// Await blocks until the future resolves or ctx is done. Giving up on ctx
// does not affect the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	default:
		select {
		case <-f.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// OnComplete registers fn to run once the future resolves. If it already
// has, fn runs immediately on the calling goroutine; otherwise it runs on
// the goroutine that resolves the future.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Then returns a future resolved with fn applied to f's result.
func Then[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	p := NewPromise[U]()
	f.OnComplete(func(v T, err error) {
		p.Complete(fn(v, err))
	})
	return p.Future()
}
