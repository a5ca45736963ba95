package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/kbukum/asynciter/errors"
	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/source/s3"
)

func TestDrainRedisStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	for _, city := range []string{"oslo", "lima"} {
		require.NoError(t, client.XAdd(context.Background(), &goredis.XAddArgs{
			Stream: "cities",
			ID:     "*",
			Values: map[string]interface{}{"name": city, "seen": 1},
		}).Err())
	}

	cfg := testConfig(t)
	cfg.Source.Kind = sourceRedis
	cfg.Source.Redis.Addr = mr.Addr()
	cfg.Source.Redis.Stream = "cities"
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	var out bytes.Buffer
	n, err := drain(ctx, newIterator(t, ctx, cfg, nil, strings.NewReader(""), logger.Nop(), testMetrics(t)), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1\t"))
	assert.True(t, strings.HasSuffix(lines[0], " name=oslo seen=1"))
	assert.True(t, strings.HasSuffix(lines[1], " name=lima seen=1"))
}

type city struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestDrainDatabaseTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cities.db")
	seed, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, seed.AutoMigrate(&city{}))
	require.NoError(t, seed.Create(&[]city{{Name: "quito"}, {Name: "tunis"}, {Name: "perth"}}).Error)
	sqlDB, err := seed.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	cfg := testConfig(t)
	cfg.Source.Kind = sourceDatabase
	cfg.Source.Database.DSN = dsn
	cfg.Source.Database.Table = "cities"
	cfg.Source.Database.PageSize = 2
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	var out bytes.Buffer
	n, err := drain(ctx, newIterator(t, ctx, cfg, nil, strings.NewReader(""), logger.Nop(), testMetrics(t)), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "1\tid=1 name=quito\n2\tid=2 name=tunis\n3\tid=3 name=perth\n", out.String())
}

func TestSourceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sourceConfig)
		wantErr string
	}{
		{"lines needs nothing", func(*sourceConfig) {}, ""},
		{"unknown kind", func(c *sourceConfig) { c.Kind = "ftp" }, "kind: must be one of"},
		{"kafka without brokers", func(c *sourceConfig) {
			c.Kind = sourceKafka
			c.Kafka.Topic = "orders"
		}, "kafka: "},
		{"redis without stream", func(c *sourceConfig) {
			c.Kind = sourceRedis
			c.Redis.Addr = "localhost:6379"
		}, "stream: is required"},
		{"s3 without bucket", func(c *sourceConfig) { c.Kind = sourceS3 }, "bucket: is required"},
		{"database without table", func(c *sourceConfig) {
			c.Kind = sourceDatabase
			c.Database.DSN = "file::memory:"
		}, "Missing required field: table"},
		{"unselected sections are ignored", func(c *sourceConfig) { c.Redis.Count = -1 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c sourceConfig
			tt.mutate(&c)
			c.ApplyDefaults()

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSourceConfigMissingTableIsAppError(t *testing.T) {
	c := sourceConfig{Kind: sourceDatabase}
	c.Database.DSN = "file::memory:"
	c.ApplyDefaults()

	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "database: ")
}

func TestRenderObject(t *testing.T) {
	line, err := renderObject(s3.Object{Key: "logs/a.gz", Size: 3 << 20, LastModified: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "logs/a.gz\t3.0 MiB\t2 hours ago", line)
}

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "a=1 b=x c=true", formatFields(map[string]any{"c": true, "a": 1, "b": "x"}))
	assert.Empty(t, formatFields(nil))
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSchema(&buf))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "asyncdrain configuration", schema["title"])
	assert.Equal(t, []any{"name"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"name", "logging", "iterator", "source", "observability"} {
		assert.Contains(t, props, key)
	}
}
