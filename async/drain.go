package async

import (
	"context"
	"iter"
)

// ForEach checks and consumes every element of it, calling fn for each.
// It stops at the end of the sequence or at the first error; on an error
// (including ctx expiring) the iterator is cancelled.
func ForEach[T any](ctx context.Context, it Iterator[T], fn func(context.Context, T) error) error {
	for {
		ok, err := it.HasNext(ctx)
		if err != nil {
			it.Cancel()
			return err
		}
		if !ok {
			return nil
		}
		v, err := it.Next()
		if err != nil {
			it.Cancel()
			return err
		}
		if err := fn(ctx, v); err != nil {
			it.Cancel()
			return err
		}
	}
}

// Collect drains it into a slice. On error it returns the elements
// consumed so far.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var result []T
	err := ForEach(ctx, it, func(_ context.Context, v T) error {
		result = append(result, v)
		return nil
	})
	return result, err
}

// All returns a range-over-func sequence over it. An error is yielded once
// as the last pair. Breaking out of the loop cancels the iterator.
func All[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			ok, err := it.HasNext(ctx)
			if err != nil {
				it.Cancel()
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			v, err := it.Next()
			if err != nil {
				it.Cancel()
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				it.Cancel()
				return
			}
		}
	}
}
