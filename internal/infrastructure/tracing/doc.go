/*
Package tracing carries a trace id across the popup and background contexts.

A remote runtime stamps each runtime message with X-Trace-ID and X-Span-ID
headers. The background opens a span per request under that trace and logs
it when the request completes, so both sides of a message share one id in
their logs.

# Usage

	tracer := tracing.New("background", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

Trace and span ids are prefixed ULIDs from the id package, so they sort by
creation time.
*/
package tracing
