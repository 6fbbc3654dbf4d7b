// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Output goes to stderr by default so the popup CLI can keep stdout for
// rendered markup.
//
// Example Usage:
//
//	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Background listening", zap.String("port", "8000"))
//	logger.Error("Summarize failed", zap.Error(err))
package logging
