package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/asynciter/logger"
	"github.com/kbukum/asynciter/resilience"
)

// Connect opens dialector and pings it, retrying with backoff up to
// cfg.ConnectAttempts times.
func Connect(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	dlog := log.WithComponent("database")
	gormCfg := &gorm.Config{
		Logger: newGormLogger(dlog, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel)),
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.ConnectAttempts
	retry.InitialBackoff = 200 * time.Millisecond
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		dlog.Warn("database connection failed", logger.MergeWithError(logger.Fields(
			"attempt", attempt,
			"backoff", backoff.String(),
		), err))
	}

	db, err := resilience.Retry(ctx, retry, func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(dialector, gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	dlog.Info("database connection established", logger.Fields("dialect", dialector.Name()))
	return db, nil
}

// Close closes the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
