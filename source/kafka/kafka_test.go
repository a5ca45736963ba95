package kafka

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/async/asynctest"
	apperrors "github.com/kbukum/asynciter/errors"
	"github.com/kbukum/asynciter/logger"
)

// fakeReader serves msgs, then blocks until the fetch context ends.
type fakeReader struct {
	mu       sync.Mutex
	msgs     []kafkago.Message
	pos      int
	fetchErr error
	commits  []int64
	closed   int
}

func newFakeReader(values ...string) *fakeReader {
	r := &fakeReader{}
	for i, v := range values {
		r.msgs = append(r.msgs, kafkago.Message{Topic: "events", Offset: int64(i), Value: []byte(v)})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		r.mu.Unlock()
		return kafkago.Message{}, r.fetchErr
	}
	if r.pos < len(r.msgs) {
		m := r.msgs[r.pos]
		r.pos++
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.commits = append(r.commits, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func open(r MessageReader, cfg Config) *async.FetchIterator[kafkago.Message] {
	return async.FromPuller[kafkago.Message](context.Background(), NewPuller(r, cfg),
		async.WithFetchLogger(logger.Nop()))
}

func values(t *testing.T, msgs []kafkago.Message) []string {
	t.Helper()
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, string(m.Value))
	}
	return out
}

func TestConformance(t *testing.T) {
	decode := func(m kafkago.Message) (int, error) { return strconv.Atoi(string(m.Value)) }
	build := func(r *fakeReader) async.Iterator[int] {
		p := async.MapPuller[kafkago.Message, int](NewPuller(r, Config{IdleTimeout: 5 * time.Millisecond}), decode)
		return async.FromPuller[int](context.Background(), p, async.WithFetchLogger(logger.Nop()))
	}

	asynctest.Run(t, func(items []int) async.Iterator[int] {
		r := newFakeReader()
		for i, v := range items {
			r.msgs = append(r.msgs, kafkago.Message{Offset: int64(i), Value: []byte(strconv.Itoa(v))})
		}
		return build(r)
	}, asynctest.Options{
		EnforceSequencing: true,
		ExhaustOnCancel:   true,
		Failing: func(err error) async.Iterator[int] {
			return build(&fakeReader{fetchErr: err})
		},
	})
}

func TestPuller_EndsAfterIdleTimeout(t *testing.T) {
	r := newFakeReader("a", "b", "c")
	it := open(r, Config{IdleTimeout: 20 * time.Millisecond})

	got, err := async.Collect(context.Background(), it)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, values(t, got))
	assert.Equal(t, async.StateExhausted, it.State())
	assert.Equal(t, 1, r.closed)
}

func TestPuller_CommitsPreviousRecordOnNext(t *testing.T) {
	r := newFakeReader("a", "b")
	it := open(r, Config{GroupID: "drain", IdleTimeout: 10 * time.Millisecond})

	require.True(t, mustHasNext(t, it))
	_, err := it.Next()
	require.NoError(t, err)
	assert.Empty(t, r.commits, "a record is not committed while it is being processed")

	_, err = async.Collect(context.Background(), it)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, r.commits)
}

func TestPuller_NoCommitsWithoutGroup(t *testing.T) {
	r := newFakeReader("a", "b")
	_, err := async.Collect(context.Background(), open(r, Config{IdleTimeout: 10 * time.Millisecond}))
	require.NoError(t, err)
	assert.Empty(t, r.commits)
}

func TestPuller_FetchErrorFailsIteration(t *testing.T) {
	boom := errors.New("broker unreachable")
	r := &fakeReader{fetchErr: boom}
	it := open(r, Config{})

	_, err := it.HasNext(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, async.StateFailed, it.State())
	assert.Equal(t, 1, r.closed)
}

func TestPuller_CancelStopsBlockedFetch(t *testing.T) {
	r := newFakeReader()
	it := open(r, Config{})

	f := it.OnHasNext()
	it.Cancel()
	ok, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.closed == 1
	}, time.Second, 5*time.Millisecond)
}

func TestConfig(t *testing.T) {
	cfg := Config{Brokers: []string{"localhost:9092"}, Topic: "events"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.MinBytes)
	assert.Equal(t, 10_000_000, cfg.MaxBytes)
	assert.Equal(t, time.Second, cfg.MaxWait)

	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"no brokers", func(c *Config) { c.Brokers = nil }, "brokers"},
		{"bad broker", func(c *Config) { c.Brokers = []string{"localhost"} }, "brokers[0]"},
		{"no topic", func(c *Config) { c.Topic = "" }, "topic"},
		{"partition with group", func(c *Config) { c.GroupID = "g"; c.Partition = 2 }, "partition"},
		{"max below min", func(c *Config) { c.MaxBytes = 0; c.MinBytes = 5 }, "max_bytes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := cfg
			tc.mod(&c)
			err := c.Validate()
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Details["fields"], tc.field)
		})
	}
}

func mustHasNext(t *testing.T, it async.Iterator[kafkago.Message]) bool {
	t.Helper()
	ok, err := it.HasNext(context.Background())
	require.NoError(t, err)
	return ok
}
