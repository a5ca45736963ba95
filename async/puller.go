package async

import (
	"context"

	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/resilience"
)

// Puller is a context-aware pull source such as a paginated API client or
// a stream reader. Next returns (zero, false, nil) at the end.
type Puller[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// FromPuller returns a FetchIterator over p. p is closed once the iterator
// no longer needs it; a Close error is logged. Release hooks in opts run
// after p is closed.
func FromPuller[T any](ctx context.Context, p Puller[T], opts ...FetchOption) *FetchIterator[T] {
	var it *FetchIterator[T]
	closeFn := func() {
		if err := p.Close(); err != nil {
			it.opts.log.Warn("closing puller failed", logger.ErrorFields("close", err))
		}
	}
	it = FromFetch[T](ctx, p.Next, append([]FetchOption{WithRelease(closeFn)}, opts...)...)
	return it
}

// MapPuller returns a Puller yielding fn applied to each element of p. An
// error from fn fails the pull like a source error. Closing the result
// closes p.
func MapPuller[T, U any](p Puller[T], fn func(T) (U, error)) Puller[U] {
	return &mappedPuller[T, U]{src: p, fn: fn}
}

type mappedPuller[T, U any] struct {
	src Puller[T]
	fn  func(T) (U, error)
}

func (m *mappedPuller[T, U]) Next(ctx context.Context) (U, bool, error) {
	var zero U
	v, ok, err := m.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	u, err := m.fn(v)
	if err != nil {
		return zero, false, err
	}
	return u, true, nil
}

func (m *mappedPuller[T, U]) Close() error { return m.src.Close() }

// RetryFetch wraps fetch so failed calls are retried with backoff before
// the error reaches the iterator. Context errors are never retried, so
// Cancel still stops a retrying fetch promptly.
func RetryFetch[T any](cfg resilience.RetryConfig, fetch FetchFunc[T]) FetchFunc[T] {
	return func(ctx context.Context) (T, bool, error) {
		e, err := resilience.Retry(ctx, cfg, func(ctx context.Context) (fetched[T], error) {
			v, ok, err := fetch(ctx)
			return fetched[T]{val: v, ok: ok}, err
		})
		return e.val, e.ok, err
	}
}

type fetched[T any] struct {
	val T
	ok  bool
}

// LimitFetch wraps fetch so every call first takes a token from l.
func LimitFetch[T any](l *resilience.Limiter, fetch FetchFunc[T]) FetchFunc[T] {
	return func(ctx context.Context) (T, bool, error) {
		if err := l.Wait(ctx); err != nil {
			var zero T
			return zero, false, err
		}
		return fetch(ctx)
	}
}
