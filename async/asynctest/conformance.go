// Package asynctest provides a conformance suite for async.Iterator
// producers.
//
// A producer's test calls Run with a factory building the producer over a
// given slice of ints:
//
//	func TestMyProducer(t *testing.T) {
//	    asynctest.Run(t, func(items []int) async.Iterator[int] {
//	        return myproducer.New(items)
//	    }, asynctest.Options{EnforceSequencing: true, ExhaustOnCancel: true})
//	}
package asynctest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/asynciter/async"
)

// Factory builds a fresh producer over items.
type Factory func(items []int) async.Iterator[int]

// Options selects which optional clauses of the contract a producer honors.
type Options struct {
	// EnforceSequencing means Next without a successful readiness check
	// fails with async.ErrIllegalSequencing.
	EnforceSequencing bool

	// ExhaustOnCancel means readiness resolves false after Cancel, apart
	// from one element already reported ready. Producers without it keep
	// reporting the underlying sequence after Cancel.
	ExhaustOnCancel bool

	// Failing, when set, builds a producer whose source fails with err on
	// its first readiness check.
	Failing func(err error) async.Iterator[int]

	// SettleWithin bounds how long any readiness check may take. Defaults
	// to one second.
	SettleWithin time.Duration
}

var sequences = map[string][]int{
	"empty":  {},
	"single": {7},
	"three":  {1, 2, 3},
	"ten":    {0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
}

// Run executes the conformance suite against factory.
func Run(t *testing.T, factory Factory, opts Options) {
	t.Helper()
	if opts.SettleWithin <= 0 {
		opts.SettleWithin = time.Second
	}
	s := &suite{factory: factory, opts: opts}

	t.Run("RepeatedChecksAreIdempotent", s.repeatedChecksAreIdempotent)
	t.Run("ConsumesExactlyN", s.consumesExactlyN)
	t.Run("NextWithoutCheck", s.nextWithoutCheck)
	t.Run("CancelIsIdempotent", s.cancelIsIdempotent)
	t.Run("CancelKeepsReadyElement", s.cancelKeepsReadyElement)
	t.Run("CancelDuringCheck", s.cancelDuringCheck)
	t.Run("UnderlyingErrorPropagates", s.underlyingErrorPropagates)
	t.Run("Collect", s.collect)
}

type suite struct {
	factory Factory
	opts    Options
}

func (s *suite) ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SettleWithin)
	t.Cleanup(cancel)
	return ctx
}

// check resolves the non-blocking check within SettleWithin.
func (s *suite) check(t *testing.T, it async.Iterator[int]) bool {
	t.Helper()
	ok, err := it.OnHasNext().Await(s.ctx(t))
	require.NoError(t, err, "readiness check did not resolve cleanly")
	return ok
}

func (s *suite) repeatedChecksAreIdempotent(t *testing.T) {
	for name, items := range sequences {
		t.Run(name, func(t *testing.T) {
			it := s.factory(items)
			var got []int
			for round := 0; ; round++ {
				want := s.check(t, it)
				for range 3 {
					assert.Equal(t, want, s.check(t, it), "round %d: repeated OnHasNext changed outcome", round)
				}
				ok, err := it.HasNext(s.ctx(t))
				require.NoError(t, err)
				assert.Equal(t, want, ok, "round %d: HasNext disagrees with OnHasNext", round)
				if !want {
					break
				}
				v, err := it.Next()
				require.NoError(t, err)
				got = append(got, v)
			}
			assert.Equal(t, len(items), len(got))
			if len(items) > 0 {
				assert.Equal(t, items, got, "repeated checks advanced the sequence")
			}
		})
	}
}

func (s *suite) consumesExactlyN(t *testing.T) {
	for name, items := range sequences {
		t.Run(name, func(t *testing.T) {
			it := s.factory(items)
			n := 0
			for s.check(t, it) {
				v, err := it.Next()
				require.NoError(t, err)
				require.Less(t, n, len(items), "more elements than the sequence holds")
				assert.Equal(t, items[n], v)
				n++
			}
			assert.Equal(t, len(items), n)

			_, err := it.Next()
			assert.ErrorIs(t, err, async.ErrExhausted)
			assert.False(t, s.check(t, it), "exhausted iterator became ready again")
		})
	}
}

func (s *suite) nextWithoutCheck(t *testing.T) {
	if !s.opts.EnforceSequencing {
		t.Skip("producer does not track sequencing")
	}

	it := s.factory([]int{1, 2})
	_, err := it.Next()
	assert.ErrorIs(t, err, async.ErrIllegalSequencing, "first Next without a check")

	require.True(t, s.check(t, it))
	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = it.Next()
	assert.ErrorIs(t, err, async.ErrIllegalSequencing, "second Next without a new check")

	require.True(t, s.check(t, it))
	v, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func (s *suite) cancelIsIdempotent(t *testing.T) {
	it := s.factory([]int{1, 2, 3})
	require.True(t, s.check(t, it))
	v, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	it.Cancel()
	it.Cancel()

	if !s.opts.ExhaustOnCancel {
		// Cancellation has nothing to release here, so the rest of the
		// sequence stays visible.
		assert.True(t, s.check(t, it))
		v, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, 2, v)
		return
	}

	for range 2 {
		assert.False(t, s.check(t, it), "readiness after cancel")
		_, err := it.Next()
		assert.ErrorIs(t, err, async.ErrExhausted, "next after cancel")
	}
}

func (s *suite) cancelKeepsReadyElement(t *testing.T) {
	it := s.factory([]int{1, 2, 3})
	require.True(t, s.check(t, it))
	it.Cancel()

	v, err := it.Next()
	require.NoError(t, err, "element reported ready before cancel must stay consumable")
	assert.Equal(t, 1, v)

	if !s.opts.ExhaustOnCancel {
		return
	}
	assert.False(t, s.check(t, it))
	_, err = it.Next()
	assert.ErrorIs(t, err, async.ErrExhausted)
}

func (s *suite) cancelDuringCheck(t *testing.T) {
	for range 20 {
		it := s.factory([]int{1, 2, 3})

		var ok bool
		g, ctx := errgroup.WithContext(s.ctx(t))
		g.Go(func() error {
			var err error
			ok, err = it.HasNext(ctx)
			return err
		})
		g.Go(func() error {
			it.Cancel()
			return nil
		})
		require.NoError(t, g.Wait(), "check racing with cancel must settle")

		if !ok {
			_, err := it.Next()
			assert.ErrorIs(t, err, async.ErrExhausted)
			continue
		}
		v, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		if s.opts.ExhaustOnCancel {
			assert.False(t, s.check(t, it))
		}
	}
}

func (s *suite) underlyingErrorPropagates(t *testing.T) {
	if s.opts.Failing == nil {
		t.Skip("no failing producer supplied")
	}
	boom := errors.New("source failed")

	_, err := s.opts.Failing(boom).OnHasNext().Await(s.ctx(t))
	assert.ErrorIs(t, err, boom, "future form")

	_, err = s.opts.Failing(boom).HasNext(s.ctx(t))
	assert.ErrorIs(t, err, boom, "blocking form")

	it := s.opts.Failing(boom)
	_, err1 := it.HasNext(s.ctx(t))
	_, err2 := it.HasNext(s.ctx(t))
	assert.Equal(t, fmt.Sprint(err1), fmt.Sprint(err2), "repeated check after failure")
}

func (s *suite) collect(t *testing.T) {
	for name, items := range sequences {
		t.Run(name, func(t *testing.T) {
			got, err := async.Collect(s.ctx(t), s.factory(items))
			require.NoError(t, err)
			assert.Len(t, got, len(items))
			if len(items) > 0 {
				assert.Equal(t, items, got)
			}
		})
	}
}
