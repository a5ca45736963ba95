package redis

import (
	"time"

	"github.com/kbukum/asynciter/config"
)

// Config selects the server and stream to read.
type Config struct {
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0"`

	Stream string `yaml:"stream" mapstructure:"stream" validate:"required"`
	// StartID is the entry ID reading starts after. "0" reads the whole
	// stream, "$" only entries added from now on.
	StartID string `yaml:"start_id" mapstructure:"start_id"`
	// Count is the most entries fetched per round trip.
	Count int64 `yaml:"count" mapstructure:"count" validate:"gte=1"`
	// Block is how long a read waits for new entries once the stream is
	// drained. Zero ends the sequence at the current tail.
	Block time.Duration `yaml:"block" mapstructure:"block" validate:"gte=0"`

	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gte=0"`
}

// ApplyDefaults fills unset read options.
func (c *Config) ApplyDefaults() {
	if c.StartID == "" {
		c.StartID = "0"
	}
	if c.Count <= 0 {
		c.Count = 100
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
