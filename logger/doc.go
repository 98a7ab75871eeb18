// Package logger provides structured logging for authkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. The engine, the storage
// adapters and the HTTP layer each log through a component logger.
//
// # Configuration
//
//	logger:
//	  level: "info"
//	  format: "json"
//	  output: "stdout"
//
// # Usage
//
//	log := logger.Get(logger.ComponentAuth)
//	log.Info("user registered", logger.Fields("user_id", id))
//
// Passwords, password hashes and tokens must never be passed as fields.
package logger
