package config

import "time"

// DefaultSettleTimeout is used when SettleTimeout is unset.
const DefaultSettleTimeout = 5 * time.Second

// IteratorConfig bounds how long iterator operations may take.
type IteratorConfig struct {
	// SettleTimeout is how long a cancelled fetch may keep running before a
	// warning is logged.
	SettleTimeout time.Duration `yaml:"settle_timeout" mapstructure:"settle_timeout" validate:"gte=0"`
	// CheckTimeout bounds a single blocking readiness check. Zero, the
	// default, waits indefinitely.
	CheckTimeout time.Duration `yaml:"check_timeout" mapstructure:"check_timeout" validate:"gte=0"`
}

// ApplyDefaults fills an unset settle timeout. CheckTimeout is left alone
// so zero keeps meaning disabled.
func (c *IteratorConfig) ApplyDefaults() {
	if c.SettleTimeout == 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
}

// Validate checks the struct tags.
func (c *IteratorConfig) Validate() error {
	return ValidateStruct(c)
}
