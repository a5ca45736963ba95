package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/driver/sqlite"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/config"
	apperrors "github.com/kbukum/asynciter/errors"
	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/source/database"
	"github.com/kbukum/asynciter/source/kafka"
	"github.com/kbukum/asynciter/source/redis"
	"github.com/kbukum/asynciter/source/s3"
)

// Source kinds.
const (
	sourceLines    = "lines"
	sourceKafka    = "kafka"
	sourceRedis    = "redis"
	sourceS3       = "s3"
	sourceDatabase = "database"
)

// sourceConfig selects where drained elements come from. Only the section
// named by Kind is defaulted and validated.
type sourceConfig struct {
	Kind     string          `yaml:"kind" mapstructure:"kind" validate:"oneof=lines kafka redis s3 database" jsonschema:"enum=lines,enum=kafka,enum=redis,enum=s3,enum=database"`
	Kafka    kafka.Config    `yaml:"kafka" mapstructure:"kafka" validate:"-"`
	Redis    redis.Config    `yaml:"redis" mapstructure:"redis" validate:"-"`
	S3       s3.Config       `yaml:"s3" mapstructure:"s3" validate:"-"`
	Database database.Config `yaml:"database" mapstructure:"database" validate:"-"`
}

func (c *sourceConfig) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = sourceLines
	}
	switch c.Kind {
	case sourceKafka:
		c.Kafka.ApplyDefaults()
	case sourceRedis:
		c.Redis.ApplyDefaults()
	case sourceS3:
		c.S3.ApplyDefaults()
	case sourceDatabase:
		c.Database.ApplyDefaults()
	}
}

func (c *sourceConfig) Validate() error {
	if err := config.ValidateStruct(c); err != nil {
		return err
	}
	var err error
	switch c.Kind {
	case sourceKafka:
		err = c.Kafka.Validate()
	case sourceRedis:
		err = c.Redis.Validate()
	case sourceS3:
		err = c.S3.Validate()
	case sourceDatabase:
		err = c.Database.Validate()
		if err == nil && c.Database.Table == "" {
			err = apperrors.MissingField("table")
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.Kind, err)
	}
	return nil
}

// openPuller connects the remote source named by cfg.Kind and renders its
// elements as lines.
func openPuller(ctx context.Context, cfg sourceConfig, log *logger.Logger) (async.Puller[string], error) {
	switch cfg.Kind {
	case sourceKafka:
		p := kafka.NewPuller(kafka.NewReader(cfg.Kafka, log), cfg.Kafka)
		return async.MapPuller[kafkago.Message, string](p, renderMessage), nil
	case sourceRedis:
		return async.MapPuller[goredis.XMessage, string](redis.Dial(cfg.Redis), renderEntry), nil
	case sourceS3:
		client, err := s3.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return async.MapPuller[s3.Object, string](s3.NewObjectPuller(client, cfg.S3), renderObject), nil
	case sourceDatabase:
		db, err := database.Connect(ctx, sqlite.Open(cfg.Database.DSN), cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return async.MapPuller[database.Row, string](database.NewTablePuller(db, cfg.Database), renderRow), nil
	default:
		return nil, fmt.Errorf("source %q has no puller", cfg.Kind)
	}
}

func renderMessage(m kafkago.Message) (string, error) {
	return string(m.Value), nil
}

func renderEntry(m goredis.XMessage) (string, error) {
	return m.ID + " " + formatFields(m.Values), nil
}

func renderObject(o s3.Object) (string, error) {
	return fmt.Sprintf("%s\t%s\t%s", o.Key, humanize.IBytes(uint64(o.Size)), humanize.Time(o.LastModified)), nil
}

func renderRow(r database.Row) (string, error) {
	return formatFields(r), nil
}

// formatFields renders m as space-separated key=value pairs in key order.
func formatFields(m map[string]any) string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%v", k, m[k])
	}), " ")
}
