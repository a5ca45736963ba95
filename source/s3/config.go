package s3

import "github.com/kbukum/asynciter/config"

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Config selects the bucket listing to iterate.
type Config struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket" validate:"required"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
	// StartAfter skips keys up to and including this one.
	StartAfter string `yaml:"start_after" mapstructure:"start_after"`
	// PageSize caps the keys per list request. Zero uses the service
	// default of 1000.
	PageSize int32 `yaml:"page_size" mapstructure:"page_size" validate:"gte=0,lte=1000"`

	Region string `yaml:"region" mapstructure:"region" validate:"required"`
	// Endpoint is a custom S3-compatible endpoint such as MinIO. Setting
	// it implies path-style addressing.
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key" validate:"required_with=AccessKey"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// ApplyDefaults fills the region.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
