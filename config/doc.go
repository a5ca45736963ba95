// Package config loads configuration for asynciter binaries.
//
// Files are read with Viper from the first config.yml found in the standard
// locations (cmd/<service>/, config/, the working directory), then overlaid
// with environment variables and an optional .env file loaded with godotenv.
// An environment variable maps onto nested keys by splitting on
// underscores, so ITERATOR_SETTLE_TIMEOUT sets iterator.settle_timeout.
//
// # Usage
//
//	var cfg DrainConfig
//	if err := config.Load("asyncdrain", &cfg); err != nil {
//	    return err
//	}
//
// Struct-tag checks go through ValidateStruct, which reports failures as an
// INVALID_INPUT AppError.
package config
