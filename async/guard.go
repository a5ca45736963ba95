package async

import (
	"context"
	"sync"
)

// GuardedIterator enforces the full lifecycle state machine over another
// producer. It rejects out-of-order consumption with ErrIllegalSequencing
// and makes cancellation force exhaustion, apart from a single element
// that was already reported ready.
type GuardedIterator[T any] struct {
	inner Iterator[T]

	mu sync.Mutex
	lifecycle
}

var (
	_ Iterator[int] = (*GuardedIterator[int])(nil)
	_ StateReporter = (*GuardedIterator[int])(nil)
)

// Guard wraps inner. The guard takes exclusive ownership of inner.
func Guard[T any](inner Iterator[T]) *GuardedIterator[T] {
	return &GuardedIterator[T]{inner: inner}
}

// State returns the current lifecycle state.
func (g *GuardedIterator[T]) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnHasNext starts a new round in StateFresh and otherwise returns the
// current round's future.
func (g *GuardedIterator[T]) OnHasNext() *Future[bool] {
	g.mu.Lock()
	switch g.state {
	case StateFresh:
	case StateCancelled:
		held := g.readyHeld
		g.mu.Unlock()
		if held {
			return Completed(true)
		}
		return Completed(false)
	default:
		f := g.promise.Future()
		g.mu.Unlock()
		return f
	}

	p := NewPromise[bool]()
	g.promise = p
	g.state = StateChecking
	g.mu.Unlock()

	g.inner.OnHasNext().OnComplete(func(ok bool, err error) {
		g.settle(p, ok, err)
	})
	return p.Future()
}

func (g *GuardedIterator[T]) settle(p *Promise[bool], ok bool, err error) {
	g.mu.Lock()
	live := g.resolveRound(p, ok, err)
	g.mu.Unlock()
	if live {
		p.Complete(ok && err == nil, err)
	}
}

// HasNext waits for OnHasNext.
func (g *GuardedIterator[T]) HasNext(ctx context.Context) (bool, error) {
	return awaitHasNext[T](ctx, g)
}

// Next consumes the element found by the last readiness check.
func (g *GuardedIterator[T]) Next() (T, error) {
	g.mu.Lock()
	err := g.take()
	g.mu.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}
	return g.inner.Next()
}

// Cancel moves the guard to StateCancelled, cancels the inner producer and
// resolves an outstanding check to false.
func (g *GuardedIterator[T]) Cancel() {
	g.mu.Lock()
	pending, changed := g.markCancelled()
	g.mu.Unlock()
	if !changed {
		return
	}

	g.inner.Cancel()
	if pending != nil {
		pending.Resolve(false)
	}
}
