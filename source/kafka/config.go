package kafka

import (
	"time"

	"github.com/kbukum/asynciter/config"
)

// Config selects the topic to read and how records are fetched.
type Config struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers" validate:"required,min=1,dive,hostname_port"`
	Topic   string   `yaml:"topic" mapstructure:"topic" validate:"required"`
	// GroupID enables consumer-group reads with offset commits. Without it
	// a single partition is read and nothing is committed.
	GroupID   string `yaml:"group_id" mapstructure:"group_id"`
	Partition int    `yaml:"partition" mapstructure:"partition" validate:"gte=0,excluded_with=GroupID"`
	// FromBeginning starts at the oldest retained record instead of the
	// newest when no committed offset exists.
	FromBeginning bool `yaml:"from_beginning" mapstructure:"from_beginning"`

	MinBytes int           `yaml:"min_bytes" mapstructure:"min_bytes" validate:"gte=1"`
	MaxBytes int           `yaml:"max_bytes" mapstructure:"max_bytes" validate:"gtefield=MinBytes"`
	MaxWait  time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`
	// IdleTimeout ends the sequence when no record arrives for this long.
	// Zero waits forever.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
}

// ApplyDefaults fills unset fetch sizes.
func (c *Config) ApplyDefaults() {
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10e6
	}
	if c.MaxWait <= 0 {
		c.MaxWait = time.Second
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
