package async

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/observability"
)

// WithLogging returns a Middleware that logs readiness rounds and
// consumption at debug level, failures at error level and cancellation at
// info level. Each wrapped iterator gets its own iterator_id.
func WithLogging[T any](log *logger.Logger, name string) Middleware[T] {
	return func(inner Iterator[T]) Iterator[T] {
		return observe(inner, &loggingObserver{
			log: log.WithFields(logger.Fields(
				logger.FieldIteratorID, uuid.NewString(),
				logger.FieldComponent, name,
			)),
		})
	}
}

type loggingObserver struct {
	log   *logger.Logger
	count atomic.Int64
}

func (l *loggingObserver) checkStarted() func(bool, error) {
	start := time.Now()
	return func(ok bool, err error) {
		if err != nil {
			l.log.Error("readiness check failed", logger.MergeWithError(
				logger.DurationFields("has_next", time.Since(start)), err))
			return
		}
		fields := logger.DurationFields("has_next", time.Since(start))
		fields[logger.FieldResult] = checkResult(ok)
		l.log.Debug("readiness check resolved", fields)
	}
}

func (l *loggingObserver) consumed(err error) {
	switch {
	case err == nil:
		l.count.Add(1)
	case errors.Is(err, ErrExhausted):
		l.log.Debug("next on exhausted iterator", logger.Fields(logger.FieldOperation, "next"))
	default:
		l.log.Error("next failed", logger.ErrorFields("next", err))
	}
}

func (l *loggingObserver) cancelled() {
	l.log.Info("iterator cancelled", logger.Fields(logger.FieldCount, l.count.Load()))
}

// WithMetrics returns a Middleware that records readiness rounds, consumed
// elements, cancellations and errors on m under the given iterator name.
func WithMetrics[T any](m *observability.IteratorMetrics, name string) Middleware[T] {
	return func(inner Iterator[T]) Iterator[T] {
		return observe(inner, &metricsObserver{m: m, name: name})
	}
}

type metricsObserver struct {
	m    *observability.IteratorMetrics
	name string
}

func (o *metricsObserver) checkStarted() func(bool, error) {
	start := time.Now()
	return func(ok bool, err error) {
		ctx := context.Background()
		result := checkResult(ok)
		if err != nil {
			result = observability.ResultError
			o.m.RecordError(ctx, o.name, "has_next")
		}
		o.m.RecordCheck(ctx, o.name, result, time.Since(start))
	}
}

func (o *metricsObserver) consumed(err error) {
	ctx := context.Background()
	switch {
	case err == nil:
		o.m.RecordElement(ctx, o.name)
	case errors.Is(err, ErrExhausted):
	default:
		o.m.RecordError(ctx, o.name, "next")
	}
}

func (o *metricsObserver) cancelled() {
	o.m.RecordCancel(context.Background(), o.name)
}

// WithTracing returns a Middleware that opens a span named
// "<name>.has_next" for every readiness round, ending it when the round
// resolves. The rounds are children of a "<name>.iterate" span that ends on
// cancellation, on a failed round or when a round resolves false, carrying
// the number of consumed elements.
func WithTracing[T any](ctx context.Context, name string) Middleware[T] {
	return func(inner Iterator[T]) Iterator[T] {
		spanCtx, span := observability.StartSpan(ctx, name+".iterate",
			trace.WithAttributes(attribute.String(observability.AttrIteratorName, name)))
		return observe(inner, &tracingObserver{ctx: spanCtx, span: span, name: name})
	}
}

type tracingObserver struct {
	ctx   context.Context
	span  trace.Span
	name  string
	count atomic.Int64
	ended atomic.Bool
}

func (o *tracingObserver) checkStarted() func(bool, error) {
	_, span := observability.StartSpan(o.ctx, o.name+".has_next")
	return func(ok bool, err error) {
		if err != nil {
			observability.SetSpanError(span, err)
		} else {
			span.SetAttributes(attribute.String(observability.AttrResult, checkResult(ok)))
		}
		span.End()
		if err != nil || !ok {
			o.end()
		}
	}
}

func (o *tracingObserver) consumed(err error) {
	if err != nil {
		if !errors.Is(err, ErrExhausted) {
			observability.SetSpanError(o.span, err)
		}
		return
	}
	o.count.Add(1)
}

func (o *tracingObserver) cancelled() {
	o.span.AddEvent("cancelled")
	o.end()
}

func (o *tracingObserver) end() {
	if o.ended.CompareAndSwap(false, true) {
		o.span.SetAttributes(attribute.Int64(observability.AttrConsumed, o.count.Load()))
		o.span.End()
	}
}

func checkResult(ok bool) string {
	if ok {
		return observability.ResultAvailable
	}
	return observability.ResultExhausted
}
