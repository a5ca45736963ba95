package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/observability"
)

// newSourceIterator iterates over the source cfg.Source selects. The lines
// source reads args, or the lines of in when args is empty. Every source
// except args is read off the consumer's goroutine.
func newSourceIterator(ctx context.Context, cfg *drainConfig, args []string, in io.Reader,
	log *logger.Logger, metrics *observability.IteratorMetrics) (async.Iterator[string], error) {
	fetchOpts := []async.FetchOption{
		async.WithSettleTimeout(cfg.Iterator.SettleTimeout),
		async.WithFetchLogger(log.WithComponent("async.fetch")),
	}

	var src async.Iterator[string]
	switch {
	case cfg.Source.Kind != sourceLines:
		p, err := openPuller(ctx, cfg.Source, log)
		if err != nil {
			return nil, err
		}
		src = async.FromPuller[string](ctx, p, fetchOpts...)
	case len(args) > 0:
		src = async.Guard[string](async.NonAsync[string](async.FromSlice(args)))
	default:
		sc := bufio.NewScanner(in)
		src = async.FromFetch[string](ctx, func(context.Context) (string, bool, error) {
			if sc.Scan() {
				return sc.Text(), true, nil
			}
			return "", false, sc.Err()
		}, fetchOpts...)
	}

	name := cfg.Source.Kind
	return async.Chain(
		async.WithCheckTimeout[string](cfg.Iterator.CheckTimeout),
		async.WithTracing[string](ctx, name),
		async.WithMetrics[string](metrics, name),
		async.WithLogging[string](log, name),
	)(src), nil
}

// drain writes every element of it to out, numbered from 1.
func drain(ctx context.Context, it async.Iterator[string], out io.Writer) (int, error) {
	n := 0
	err := async.ForEach(ctx, it, func(_ context.Context, line string) error {
		n++
		_, err := fmt.Fprintf(out, "%d\t%s\n", n, line)
		return err
	})
	return n, err
}
