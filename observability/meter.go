package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/asynciter/logger"
)

// MeterConfig configures the OTLP metric pipeline.
type MeterConfig struct {
	Resource
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string
	Insecure bool
	// Interval is the export period. Zero selects the SDK default.
	Interval time.Duration
}

// DefaultMeterConfig returns a config for a local collector exporting every
// 15 seconds.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		Resource: Resource{ServiceName: serviceName, ServiceVersion: "dev", Environment: "development"},
		Endpoint: "localhost:4318",
		Insecure: true,
		Interval: 15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := cfg.Resource.build()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Readiness check outcomes recorded by RecordCheck.
const (
	ResultAvailable = "available"
	ResultExhausted = "exhausted"
	ResultError     = "error"
)

// Metric instrument names.
const (
	MetricChecks        = "iterator.checks"
	MetricCheckDuration = "iterator.check.duration"
	MetricElements      = "iterator.elements"
	MetricCancels       = "iterator.cancels"
	MetricErrors        = "iterator.errors"
)

// IteratorMetrics holds the instruments recorded by iterator middleware.
type IteratorMetrics struct {
	checks        metric.Int64Counter
	checkDuration metric.Float64Histogram
	elements      metric.Int64Counter
	cancels       metric.Int64Counter
	errors        metric.Int64Counter
}

// NewIteratorMetrics creates the iterator instruments on meter.
func NewIteratorMetrics(meter metric.Meter) (*IteratorMetrics, error) {
	checks, err := meter.Int64Counter(MetricChecks,
		metric.WithDescription("Readiness check rounds by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChecks, err)
	}

	checkDuration, err := meter.Float64Histogram(MetricCheckDuration,
		metric.WithDescription("Time from starting a readiness check to its resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricCheckDuration, err)
	}

	elements, err := meter.Int64Counter(MetricElements,
		metric.WithDescription("Elements consumed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricElements, err)
	}

	cancels, err := meter.Int64Counter(MetricCancels,
		metric.WithDescription("Iterators cancelled by their consumer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCancels, err)
	}

	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Errors by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	return &IteratorMetrics{
		checks:        checks,
		checkDuration: checkDuration,
		elements:      elements,
		cancels:       cancels,
		errors:        errs,
	}, nil
}

// RecordCheck records one resolved readiness round.
func (m *IteratorMetrics) RecordCheck(ctx context.Context, iterator, result string, duration time.Duration) {
	m.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrIteratorName, iterator),
		attribute.String(AttrResult, result),
	))
	m.checkDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrIteratorName, iterator),
	))
}

// RecordElement records one consumed element.
func (m *IteratorMetrics) RecordElement(ctx context.Context, iterator string) {
	m.elements.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrIteratorName, iterator)))
}

// RecordCancel records a cancellation.
func (m *IteratorMetrics) RecordCancel(ctx context.Context, iterator string) {
	m.cancels.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrIteratorName, iterator)))
}

// RecordError records an error returned by operation.
func (m *IteratorMetrics) RecordError(ctx context.Context, iterator, operation string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrIteratorName, iterator),
		attribute.String(AttrOperation, operation),
	))
}
