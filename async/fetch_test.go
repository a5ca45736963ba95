package async_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/async/asynctest"
	"github.com/kbukum/asynciter/logger"
)

// pagedFetch serves items one per call after a short delay, like a remote
// cursor would.
func pagedFetch(items []int, delay time.Duration) async.FetchFunc[int] {
	var (
		mu  sync.Mutex
		pos int
	)
	return func(ctx context.Context) (int, bool, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
		mu.Lock()
		defer mu.Unlock()
		if pos >= len(items) {
			return 0, false, nil
		}
		pos++
		return items[pos-1], true, nil
	}
}

func TestFetchConformance(t *testing.T) {
	asynctest.Run(t, func(items []int) async.Iterator[int] {
		return async.FromFetch[int](context.Background(), pagedFetch(items, time.Millisecond),
			async.WithFetchLogger(logger.Nop()))
	}, asynctest.Options{
		EnforceSequencing: true,
		ExhaustOnCancel:   true,
		Failing: func(err error) async.Iterator[int] {
			return async.FromFetch[int](context.Background(), func(context.Context) (int, bool, error) {
				return 0, false, err
			}, async.WithFetchLogger(logger.Nop()))
		},
	})
}

func TestFetch_ChecksCoalesce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	it := async.FromFetch[string](context.Background(), func(ctx context.Context) (string, bool, error) {
		calls.Add(1)
		<-release
		return "page-1", true, nil
	}, async.WithFetchLogger(logger.Nop()))

	f1 := it.OnHasNext()
	f2 := it.OnHasNext()
	assert.Same(t, f1, f2, "outstanding check must be joined, not restarted")
	assert.Equal(t, async.StateChecking, it.State())

	close(release)
	ok, err := it.HasNext(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, f1, it.OnHasNext(), "resolved check is reused")
	assert.Equal(t, int32(1), calls.Load())

	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "page-1", v)
	assert.Equal(t, async.StateFresh, it.State())
}

func TestFetch_HasNextContextOnlyBoundsWait(t *testing.T) {
	release := make(chan struct{})
	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		<-release
		return 5, true, nil
	}, async.WithFetchLogger(logger.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := it.HasNext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, async.StateChecking, it.State(), "abandoned wait leaves the check outstanding")

	close(release)
	assert.True(t, mustHasNext[int](t, it))
	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestFetch_CancelDuringCheckSettlesImmediately(t *testing.T) {
	fetchCtx := make(chan context.Context, 1)
	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		fetchCtx <- ctx
		<-ctx.Done()
		return 0, false, ctx.Err()
	}, async.WithFetchLogger(logger.Nop()))

	f := it.OnHasNext()
	ctx := <-fetchCtx

	start := time.Now()
	it.Cancel()
	assert.Less(t, time.Since(start), 100*time.Millisecond, "cancel must not block")

	ok, err := f.Await(context.Background())
	require.NoError(t, err, "cancelled check resolves false rather than failing")
	assert.False(t, ok)
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "fetch context is cancelled")
	assert.Equal(t, async.StateCancelled, it.State())
}

func TestFetch_LogsUnsettledFetch(t *testing.T) {
	var buf syncBuffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	release := make(chan struct{})
	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		<-release // ignores ctx
		return 1, true, nil
	}, async.WithFetchLogger(log), async.WithSettleTimeout(10*time.Millisecond))
	defer close(release)

	it.OnHasNext()
	it.Cancel()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "cancelled fetch has not settled")
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, buf.String(), it.ID())
}

func TestFetch_LogsSettledFetch(t *testing.T) {
	var buf syncBuffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		<-ctx.Done()
		return 0, false, ctx.Err()
	}, async.WithFetchLogger(log))

	it.OnHasNext()
	it.Cancel()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "cancelled fetch settled")
	}, time.Second, 5*time.Millisecond)
}

func TestFetch_ExhaustionReleasesContext(t *testing.T) {
	var seen context.Context
	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		seen = ctx
		return 0, false, nil
	}, async.WithFetchLogger(logger.Nop()))

	assert.False(t, mustHasNext[int](t, it))
	assert.Equal(t, async.StateExhausted, it.State())
	assert.ErrorIs(t, seen.Err(), context.Canceled)
}

func TestFetch_FailureIsTerminal(t *testing.T) {
	boom := errors.New("page 3 unavailable")
	var calls atomic.Int32
	it := async.FromFetch[int](context.Background(), func(ctx context.Context) (int, bool, error) {
		calls.Add(1)
		return 0, false, boom
	}, async.WithFetchLogger(logger.Nop()))

	_, err := it.HasNext(context.Background())
	assert.Same(t, boom, err)
	_, err = it.HasNext(context.Background())
	assert.Same(t, boom, err)
	assert.Equal(t, async.StateFailed, it.State())

	_, err = it.Next()
	assert.Same(t, boom, err)
	assert.Equal(t, int32(1), calls.Load(), "no retry")
}

func TestFetch_ParentContextCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	it := async.FromFetch[int](parent, pagedFetch([]int{1, 2}, time.Hour),
		async.WithFetchLogger(logger.Nop()))

	f := it.OnHasNext()
	cancel()

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, async.StateFailed, it.State())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
