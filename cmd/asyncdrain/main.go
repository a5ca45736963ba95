// Command asyncdrain drains a source through an instrumented asynchronous
// iterator and prints its elements numbered.
//
// The default source is the command's arguments, or the lines of standard
// input. source.kind selects a Kafka topic, a Redis stream, an S3 listing
// or a SQLite table instead.
//
// Configuration is read from config.yml and the environment. Tracing and
// metrics are exported over OTLP HTTP when enabled.
//
// Usage:
//
//	asyncdrain [-schema] [line ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/asynciter/bootstrap"
	"github.com/kbukum/asynciter/config"
	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/observability"
	"github.com/kbukum/asynciter/version"
)

func main() {
	schema := flag.Bool("schema", false, "print the JSON Schema of the config file and exit")
	flag.Parse()
	if *schema {
		if err := writeSchema(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "asyncdrain: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var cfg drainConfig
	if err := config.LoadConfig("asyncdrain", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "asyncdrain: %v\n", err)
		os.Exit(1)
	}
	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asyncdrain: %v\n", err)
		os.Exit(1)
	}

	app.Logger.Debug("build", version.Get().Fields())
	app.OnConfigure(startTelemetry)

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		metrics, err := observability.NewIteratorMetrics(observability.Meter(app.Name))
		if err != nil {
			return err
		}
		it, err := newSourceIterator(ctx, app.Cfg, flag.Args(), os.Stdin, app.Logger, metrics)
		if err != nil {
			return err
		}
		n, err := drain(ctx, it, os.Stdout)
		app.Logger.Info("drained", logger.Fields(logger.FieldCount, n))
		return err
	})
	if err != nil {
		os.Exit(1)
	}
}

// startTelemetry installs the OTLP providers enabled in the config and
// registers their shutdown. A provider started before a later one fails is
// still shut down.
func startTelemetry(ctx context.Context, app *bootstrap.App[*drainConfig]) error {
	cfg := app.Cfg
	obs := cfg.Observability

	res := observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	}

	if obs.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			Resource:   res,
			Endpoint:   obs.Tracing.Endpoint,
			Insecure:   obs.Tracing.Insecure,
			SampleRate: obs.Tracing.SampleRate,
		})
		if err != nil {
			return err
		}
		app.OnStop(tp.Shutdown)
	}

	if obs.Metrics.Enabled {
		mcfg := observability.DefaultMeterConfig(cfg.Name)
		mcfg.Resource = res
		mcfg.Endpoint = obs.Metrics.Endpoint
		mcfg.Insecure = obs.Metrics.Insecure
		mp, err := observability.InitMeter(ctx, mcfg)
		if err != nil {
			return err
		}
		app.OnStop(mp.Shutdown)
	}
	return nil
}
