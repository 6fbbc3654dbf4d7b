// Package middleware provides the gin middleware of the background service.
//
//   - CORS: extension pages call in from their own origins
//   - RateLimit: per-IP token bucket with idle-client eviction
//   - GlobalRateLimit: one bucket for every client
//   - Logger and Recovery: zap request logging and panic recovery
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
package middleware
