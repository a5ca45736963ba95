// Package redis exposes a Redis stream as an asynchronous iterator.
//
// Entries are read with XREAD in batches of Config.Count and handed out one
// per readiness check. The read position lives in the puller, so nothing is
// acknowledged on the server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/logger"
)

// StreamReader is the part of a go-redis client the puller uses.
type StreamReader interface {
	XRead(ctx context.Context, a *goredis.XReadArgs) *goredis.XStreamSliceCmd
}

// StreamPuller pulls entries from one stream. It implements
// async.Puller[goredis.XMessage].
type StreamPuller struct {
	r      StreamReader
	stream string
	lastID string
	count  int64
	block  time.Duration
	buf    []goredis.XMessage
	owned  io.Closer
}

var _ async.Puller[goredis.XMessage] = (*StreamPuller)(nil)

// NewStreamPuller reads cfg.Stream through r, which stays owned by the
// caller.
func NewStreamPuller(r StreamReader, cfg Config) *StreamPuller {
	block := cfg.Block
	if block <= 0 {
		// go-redis omits BLOCK for negative durations; zero would block
		// forever.
		block = -1
	}
	return &StreamPuller{
		r:      r,
		stream: cfg.Stream,
		lastID: cfg.StartID,
		count:  cfg.Count,
		block:  block,
	}
}

// Next returns the next buffered entry, reading a new batch when the
// buffer is empty. An empty read ends the sequence.
func (p *StreamPuller) Next(ctx context.Context) (goredis.XMessage, bool, error) {
	var zero goredis.XMessage
	if len(p.buf) == 0 {
		streams, err := p.r.XRead(ctx, &goredis.XReadArgs{
			Streams: []string{p.stream, p.lastID},
			Count:   p.count,
			Block:   p.block,
		}).Result()
		if errors.Is(err, goredis.Nil) {
			return zero, false, nil
		}
		if err != nil {
			return zero, false, fmt.Errorf("redis: xread %s after %s: %w", p.stream, p.lastID, err)
		}
		for _, s := range streams {
			p.buf = append(p.buf, s.Messages...)
		}
		if len(p.buf) == 0 {
			return zero, false, nil
		}
	}

	msg := p.buf[0]
	p.buf = p.buf[1:]
	p.lastID = msg.ID
	return msg, true, nil
}

// LastID returns the ID of the last entry handed out, or the start ID.
func (p *StreamPuller) LastID() string { return p.lastID }

// Close closes the client if the puller created it.
func (p *StreamPuller) Close() error {
	if p.owned == nil {
		return nil
	}
	return p.owned.Close()
}

// NewClient builds a go-redis client for cfg. Context deadlines bound
// every command, so cancelling an iterator interrupts a blocked read.
func NewClient(cfg Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		DialTimeout:           cfg.DialTimeout,
		ContextTimeoutEnabled: true,
	})
}

// Dial returns a StreamPuller on a client of its own, closed by Close.
func Dial(cfg Config) *StreamPuller {
	client := NewClient(cfg)
	p := NewStreamPuller(client, cfg)
	p.owned = client
	return p
}

// Open returns an iterator over cfg.Stream on a client of its own. The
// client is closed when the iterator ends or is cancelled.
func Open(ctx context.Context, cfg Config, log *logger.Logger, opts ...async.FetchOption) *async.FetchIterator[goredis.XMessage] {
	p := Dial(cfg)

	log.WithComponent("redis.stream").Info("reading redis stream", logger.Fields(
		"addr", cfg.Addr,
		"stream", cfg.Stream,
		"start_id", cfg.StartID,
	))
	opts = append([]async.FetchOption{async.WithFetchLogger(log)}, opts...)
	return async.FromPuller[goredis.XMessage](ctx, p, opts...)
}
