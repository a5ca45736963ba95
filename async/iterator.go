package async

import (
	"context"

	apperrors "github.com/kbukum/asynciter/errors"
)

// Iterator is a pull-based sequence whose elements may depend on in-flight
// asynchronous work.
//
// One consumer drives an instance; only Cancel may be called concurrently
// with an outstanding readiness check.
type Iterator[T any] interface {
	// OnHasNext starts or joins the readiness check for the next element
	// and returns without blocking. The future resolves true if an element
	// is available, false if the sequence is exhausted.
	//
	// Until the next Next call it returns a future with the same outcome
	// and never starts a second computation.
	OnHasNext() *Future[bool]

	// HasNext waits for OnHasNext to resolve. ctx bounds the wait only:
	// the check stays outstanding for a later call to join.
	HasNext(ctx context.Context) (bool, error)

	// Next returns the element the last readiness check found and
	// advances the sequence. It fails with ErrIllegalSequencing if no
	// check has resolved true since the previous Next, and with
	// ErrExhausted once the sequence is exhausted or cancelled.
	Next() (T, error)

	// Cancel signals that no further elements will be consumed. It never
	// blocks, may be called repeatedly, and makes an outstanding check
	// settle. An element already reported ready may still be consumed.
	Cancel()
}

// StateReporter is implemented by producers that track their lifecycle
// state explicitly.
type StateReporter interface {
	State() State
}

var (
	// ErrIllegalSequencing is returned by Next without a preceding
	// successful readiness check.
	ErrIllegalSequencing = apperrors.New(apperrors.ErrCodeIllegalSequencing, "next called without a successful readiness check")

	// ErrExhausted is returned by Next once the sequence is exhausted or
	// cancelled.
	ErrExhausted = apperrors.Exhausted()
)

func illegalSequencing(state State) error {
	return apperrors.IllegalSequencing("next", state.String())
}

// awaitHasNext implements HasNext on top of OnHasNext.
func awaitHasNext[T any](ctx context.Context, it Iterator[T]) (bool, error) {
	return it.OnHasNext().Await(ctx)
}
