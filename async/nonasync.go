package async

import "context"

// NonAsyncIterator exposes an eager Source through the Iterator contract.
// Every readiness check resolves before it returns; no goroutines are
// involved.
//
// It keeps no state of its own: Next delegates straight to the source, so
// the source's ErrExhausted is what callers see past the end. Cancel is a
// no-op because there is no outstanding work or external resource to
// release; wrap the iterator with Guard to make cancellation force
// exhaustion.
type NonAsyncIterator[T any] struct {
	underlying Source[T]
}

var _ Iterator[int] = (*NonAsyncIterator[int])(nil)

// NonAsync wraps src. The iterator takes exclusive ownership of src.
func NonAsync[T any](src Source[T]) *NonAsyncIterator[T] {
	return &NonAsyncIterator[T]{underlying: src}
}

// OnHasNext returns an already-resolved future carrying the source's answer.
func (it *NonAsyncIterator[T]) OnHasNext() *Future[bool] {
	ok, err := it.underlying.HasNext()
	if err != nil {
		return Failed[bool](err)
	}
	return Completed(ok)
}

// HasNext returns the source's answer directly; ctx is not consulted.
func (it *NonAsyncIterator[T]) HasNext(_ context.Context) (bool, error) {
	return it.underlying.HasNext()
}

// Next returns the source's next element.
func (it *NonAsyncIterator[T]) Next() (T, error) {
	return it.underlying.Next()
}

// Cancel does nothing.
func (it *NonAsyncIterator[T]) Cancel() {}
