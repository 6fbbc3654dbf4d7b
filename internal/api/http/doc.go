// Package http exposes the privileged background context over HTTP.
//
// Routes:
//
//	POST /runtime/message  deliver a runtime message; 200 with the Response
//	                       when a listener claims it, 204 otherwise
//	GET  /health           liveness, breaker state and running totals
//	GET  /metrics          prometheus exposition
//
// Responses are gzip-compressed when the client accepts it.
package http
