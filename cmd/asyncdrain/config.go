package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"

	"github.com/kbukum/asynciter/config"
	"github.com/kbukum/asynciter/version"
)

type drainConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Iterator             config.IteratorConfig      `yaml:"iterator" mapstructure:"iterator"`
	Source               sourceConfig               `yaml:"source" mapstructure:"source"`
	Observability        config.ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

func (c *drainConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Iterator.ApplyDefaults()
	c.Source.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *drainConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Iterator.Validate(); err != nil {
		return fmt.Errorf("iterator: %w", err)
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// writeSchema writes the JSON Schema of the config file to w.
func writeSchema(w io.Writer) error {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
	}
	s := r.Reflect(&drainConfig{})
	s.Title = "asyncdrain configuration"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
