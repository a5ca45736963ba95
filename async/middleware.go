package async

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	apperrors "github.com/kbukum/asynciter/errors"
)

// Middleware decorates a producer. Decorators must not change what the
// wrapped producer reports; they only observe it.
type Middleware[T any] func(Iterator[T]) Iterator[T]

// Chain composes middlewares. The first middleware is outermost.
//
// Chain(a, b, c)(it) is equivalent to a(b(c(it))).
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(inner Iterator[T]) Iterator[T] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// observer receives lifecycle events from an observed iterator.
type observer interface {
	// checkStarted is called once per readiness round. The returned
	// function runs when the round resolves, possibly on another goroutine.
	checkStarted() func(ok bool, err error)
	// consumed is called after every Next.
	consumed(err error)
	// cancelled is called on the first Cancel only.
	cancelled()
}

// observed forwards every call to inner and reports events to obs.
// A round starts with the first OnHasNext after construction or after a
// Next, so repeated idempotent checks are reported once.
type observed[T any] struct {
	inner     Iterator[T]
	obs       observer
	roundOpen bool
	cancelled atomic.Bool
}

func observe[T any](inner Iterator[T], obs observer) *observed[T] {
	return &observed[T]{inner: inner, obs: obs}
}

func (o *observed[T]) OnHasNext() *Future[bool] {
	if o.roundOpen {
		return o.inner.OnHasNext()
	}
	o.roundOpen = true
	done := o.obs.checkStarted()
	f := o.inner.OnHasNext()
	f.OnComplete(done)
	return f
}

func (o *observed[T]) HasNext(ctx context.Context) (bool, error) {
	return awaitHasNext[T](ctx, o)
}

func (o *observed[T]) Next() (T, error) {
	o.roundOpen = false
	v, err := o.inner.Next()
	o.obs.consumed(err)
	return v, err
}

func (o *observed[T]) Cancel() {
	if o.cancelled.CompareAndSwap(false, true) {
		o.obs.cancelled()
	}
	o.inner.Cancel()
}

// WithCheckTimeout returns a Middleware bounding every blocking HasNext to
// d. When the bound expires before the check resolves, HasNext returns a
// TIMEOUT AppError wrapping context.DeadlineExceeded; the check itself
// stays outstanding. Non-positive d leaves the iterator unchanged.
//
// Other decorators wait through their own OnHasNext, so WithCheckTimeout
// only takes effect as the outermost middleware of a Chain.
func WithCheckTimeout[T any](d time.Duration) Middleware[T] {
	return func(inner Iterator[T]) Iterator[T] {
		if d <= 0 {
			return inner
		}
		return &timeoutIterator[T]{Iterator: inner, timeout: d}
	}
}

type timeoutIterator[T any] struct {
	Iterator[T]
	timeout time.Duration
}

func (t *timeoutIterator[T]) HasNext(ctx context.Context) (bool, error) {
	checkCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	ok, err := t.Iterator.HasNext(checkCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return false, apperrors.Timeout("has_next").
			WithDetail("timeout", t.timeout.String()).
			WithCause(err)
	}
	return ok, err
}
