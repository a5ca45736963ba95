package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/logger"
)

// MessageReader is the part of *kafkago.Reader the puller uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

var _ MessageReader = (*kafkago.Reader)(nil)

// Puller pulls records from a MessageReader. It implements
// async.Puller[kafkago.Message].
type Puller struct {
	r       MessageReader
	commit  bool
	idle    time.Duration
	pending *kafkago.Message
}

var _ async.Puller[kafkago.Message] = (*Puller)(nil)

// NewPuller returns a Puller over r. Offsets are committed only when
// cfg.GroupID is set. The puller owns r.
func NewPuller(r MessageReader, cfg Config) *Puller {
	return &Puller{r: r, commit: cfg.GroupID != "", idle: cfg.IdleTimeout}
}

// Next commits the previously returned record, then fetches the next one.
// It reports the end of the sequence when the idle timeout passes without
// a record.
func (p *Puller) Next(ctx context.Context) (kafkago.Message, bool, error) {
	var zero kafkago.Message
	if p.pending != nil {
		if err := p.r.CommitMessages(ctx, *p.pending); err != nil {
			return zero, false, fmt.Errorf("kafka: commit %s/%d@%d: %w",
				p.pending.Topic, p.pending.Partition, p.pending.Offset, err)
		}
		p.pending = nil
	}

	fetchCtx := ctx
	if p.idle > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.idle)
		defer cancel()
	}
	msg, err := p.r.FetchMessage(fetchCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return zero, false, nil
		}
		return zero, false, err
	}
	if p.commit {
		p.pending = &msg
	}
	return msg, true, nil
}

// Close closes the reader. The last returned record stays uncommitted.
func (p *Puller) Close() error {
	return p.r.Close()
}

// NewReader builds a kafka-go Reader for cfg. Reader errors are logged.
func NewReader(cfg Config, log *logger.Logger) *kafkago.Reader {
	clog := log.WithComponent("kafka.reader")
	rc := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			clog.Error(fmt.Sprintf(msg, args...), logger.Fields("topic", cfg.Topic))
		}),
	}
	if cfg.GroupID == "" {
		rc.Partition = cfg.Partition
	} else if cfg.FromBeginning {
		rc.StartOffset = kafkago.FirstOffset
	} else {
		rc.StartOffset = kafkago.LastOffset
	}

	r := kafkago.NewReader(rc)
	if cfg.GroupID == "" && !cfg.FromBeginning {
		if err := r.SetOffset(kafkago.LastOffset); err != nil {
			clog.Warn("failed to seek to newest record", logger.ErrorFields("set_offset", err))
		}
	}
	clog.Info("kafka reader created", logger.Fields(
		"topic", cfg.Topic,
		"group_id", cfg.GroupID,
		"brokers", cfg.Brokers,
	))
	return r
}

// Open returns an iterator over the topic in cfg. The reader is closed
// when the iterator ends or is cancelled.
func Open(ctx context.Context, cfg Config, log *logger.Logger, opts ...async.FetchOption) *async.FetchIterator[kafkago.Message] {
	opts = append([]async.FetchOption{async.WithFetchLogger(log)}, opts...)
	return async.FromPuller[kafkago.Message](ctx, NewPuller(NewReader(cfg, log), cfg), opts...)
}
