// Package observability provides OpenTelemetry tracing and metrics for
// asynciter producers and consumers.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("asyncdrain"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "pages.has_next")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("asyncdrain"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewIteratorMetrics(observability.Meter("asyncdrain"))
//	metrics.RecordCheck(ctx, "pages", observability.ResultAvailable, d)
package observability
