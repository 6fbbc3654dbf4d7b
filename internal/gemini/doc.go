/*
Package gemini is the summarization client for the generative language API.

It lists the models that support content generation for an API key and
requests a markdown summary of page text. Outbound calls go through resty on
a pooled transport, a token bucket limiter and a circuit breaker that trips on
connection failures only. Retries are disabled: every failure surfaces to the
caller as-is.

Failures are reported as *APIError when the endpoint answers with a
non-success status, and as ErrEmptyResult when it answers successfully without
any text.
*/
package gemini
