package async

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/asynciter/logger"
)

// DefaultSettleTimeout is how long a cancelled fetch may keep running
// before FetchIterator logs that it has not settled.
const DefaultSettleTimeout = 5 * time.Second

// FetchFunc produces the next element. It returns (value, true, nil) for
// an element and (zero, false, nil) at the end of the sequence. It must
// return promptly once ctx is done.
type FetchFunc[T any] func(ctx context.Context) (T, bool, error)

// FetchOption configures a FetchIterator.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	settleTimeout time.Duration
	log           *logger.Logger
	release       func()
}

// WithSettleTimeout sets how long a cancelled fetch may run before a
// warning is logged. Non-positive values select DefaultSettleTimeout.
func WithSettleTimeout(d time.Duration) FetchOption {
	return func(o *fetchOptions) {
		if d > 0 {
			o.settleTimeout = d
		}
	}
}

// WithFetchLogger sets the logger used for lifecycle events.
func WithFetchLogger(l *logger.Logger) FetchOption {
	return func(o *fetchOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRelease registers fn to run once the iterator is done with its fetch
// function: after the sequence ends or fails, or after Cancel once any
// in-flight fetch has returned. A fetch that never returns is never
// released. Several release hooks run in the order they were given.
func WithRelease(fn func()) FetchOption {
	return func(o *fetchOptions) {
		prev := o.release
		if prev == nil {
			o.release = fn
			return
		}
		o.release = func() {
			prev()
			fn()
		}
	}
}

// FetchIterator is an asynchronous producer that runs one FetchFunc call
// per readiness round on its own goroutine.
type FetchIterator[T any] struct {
	fetch  FetchFunc[T]
	ctx    context.Context
	cancel context.CancelFunc
	opts   fetchOptions
	id     string

	releaseOnce sync.Once

	mu       sync.Mutex
	lifecycle
	inflight chan struct{}
	val      T
}

var (
	_ Iterator[int] = (*FetchIterator[int])(nil)
	_ StateReporter = (*FetchIterator[int])(nil)
)

// FromFetch returns a producer over fetch. Every fetch call receives a
// context derived from ctx that is cancelled by Cancel and released once
// the sequence ends.
func FromFetch[T any](ctx context.Context, fetch FetchFunc[T], opts ...FetchOption) *FetchIterator[T] {
	o := fetchOptions{settleTimeout: DefaultSettleTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	if o.log == nil {
		o.log = logger.Get("async.fetch")
	}
	o.log = o.log.WithFields(logger.Fields(logger.FieldIteratorID, id))

	fctx, cancel := context.WithCancel(ctx)
	return &FetchIterator[T]{
		fetch:  fetch,
		ctx:    fctx,
		cancel: cancel,
		opts:   o,
		id:     id,
	}
}

// ID returns the identifier attached to this iterator's log entries.
func (it *FetchIterator[T]) ID() string { return it.id }

// State returns the current lifecycle state.
func (it *FetchIterator[T]) State() State {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.state
}

// OnHasNext starts a fetch in StateFresh and otherwise returns the current
// round's future.
func (it *FetchIterator[T]) OnHasNext() *Future[bool] {
	it.mu.Lock()
	defer it.mu.Unlock()

	switch it.state {
	case StateFresh:
	case StateCancelled:
		return Completed(it.readyHeld)
	default:
		return it.promise.Future()
	}

	p := NewPromise[bool]()
	done := make(chan struct{})
	it.promise = p
	it.inflight = done
	it.state = StateChecking
	go it.run(p, done)
	return p.Future()
}

func (it *FetchIterator[T]) run(p *Promise[bool], done chan struct{}) {
	defer close(done)
	v, ok, err := it.fetch(it.ctx)

	it.mu.Lock()
	if !it.resolveRound(p, ok, err) {
		// Cancelled while fetching; the round is already resolved.
		it.mu.Unlock()
		return
	}
	if it.state == StateReady {
		it.val = v
	}
	terminal := it.state.Terminal()
	it.mu.Unlock()

	if terminal {
		it.cancel()
		it.release()
	}
	if err != nil {
		it.opts.log.Debug("fetch failed", logger.ErrorFields("has_next", err))
	}
	p.Complete(ok && err == nil, err)
}

// HasNext waits for OnHasNext.
func (it *FetchIterator[T]) HasNext(ctx context.Context) (bool, error) {
	return awaitHasNext[T](ctx, it)
}

// Next returns the fetched element.
func (it *FetchIterator[T]) Next() (T, error) {
	var zero T
	it.mu.Lock()
	defer it.mu.Unlock()

	if err := it.take(); err != nil {
		return zero, err
	}
	v := it.val
	it.val = zero
	return v, nil
}

// Cancel cancels the fetch context and resolves an outstanding check to
// false without waiting for the fetch to return. If it has not returned
// within the settle timeout a warning is logged.
func (it *FetchIterator[T]) Cancel() {
	it.mu.Lock()
	pending, changed := it.markCancelled()
	if !changed {
		it.mu.Unlock()
		return
	}
	var done chan struct{}
	if pending != nil {
		done = it.inflight
	}
	it.mu.Unlock()

	it.cancel()
	if pending == nil {
		it.release()
		return
	}
	pending.Resolve(false)
	go it.watchSettle(done)
}

func (it *FetchIterator[T]) watchSettle(done <-chan struct{}) {
	start := time.Now()
	timer := time.NewTimer(it.opts.settleTimeout)
	defer timer.Stop()

	select {
	case <-done:
		it.opts.log.Debug("cancelled fetch settled", logger.DurationFields("cancel", time.Since(start)))
	case <-timer.C:
		it.opts.log.Warn("cancelled fetch has not settled", logger.DurationFields("cancel", it.opts.settleTimeout))
		<-done
	}
	it.release()
}

func (it *FetchIterator[T]) release() {
	if it.opts.release != nil {
		it.releaseOnce.Do(it.opts.release)
	}
}
