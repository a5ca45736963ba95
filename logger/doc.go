// Package logger provides structured logging for asynciter using zerolog.
//
// It supports JSON and console output, log level configuration and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("fetch")
//	log.Warn("fetch did not settle", logger.Fields(logger.FieldIteratorID, id))
package logger
