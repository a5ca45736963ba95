package database

import (
	"time"

	"github.com/kbukum/asynciter/config"
)

// Config configures the connection and the keyset scan.
type Config struct {
	DSN          string `yaml:"dsn" mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns" validate:"gte=1"`
	// ConnectAttempts bounds how often Connect tries to open and ping.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts" validate:"gte=1"`

	// Table overrides the table derived from the row type. Column-map
	// scans require it.
	Table string `yaml:"table" mapstructure:"table"`
	// KeyColumn must be unique and increase in scan order, usually the
	// primary key.
	KeyColumn string `yaml:"key_column" mapstructure:"key_column" validate:"required"`
	PageSize  int    `yaml:"page_size" mapstructure:"page_size" validate:"gte=1,lte=10000"`

	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold" validate:"gte=0"`
	LogLevel           string        `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=silent error warn info"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 5
	}
	if c.KeyColumn == "" {
		c.KeyColumn = "id"
	}
	if c.PageSize <= 0 {
		c.PageSize = 500
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
