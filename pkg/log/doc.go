// Package log provides a logging abstraction for wiresplit components.
//
// Use the zerolog adapter:
//
//	logger := log.NewZerologAdapter("info")
//
// Or the no-op logger for tests:
//
//	logger := log.NewNoopLogger()
//
// Per-stream loggers are derived with With:
//
//	streamLog := logger.With(log.String("stream", id))
package log
