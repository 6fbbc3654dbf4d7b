// Package config provides 12-factor configuration management for PageBrief.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: background HTTP server settings (port, host)
//   - Gemini: remote summarization endpoint, timeout, client-side rate limit
//   - Storage: durable key/value backend (sqlite, memory, redis)
//   - Popup: background URL and host calling-convention flavor
//   - Render: sanitization policy for rendered summaries
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - GEMINI_BASE_URL, GEMINI_TIMEOUT, GEMINI_RATE_LIMIT
//   - STORAGE_DRIVER, STORAGE_PATH, REDIS_ADDR, REDIS_PREFIX
//   - BACKGROUND_URL, HOST_FLAVOR, RENDER_POLICY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
