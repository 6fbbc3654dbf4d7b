/*
Package monitoring provides Prometheus metrics for the extension host.

It tracks HTTP traffic on the background server, runtime messages claimed by
the privileged listener, calls to the generative language API together with
the circuit breaker guarding them, and key/value store operations.

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "generateContent")
	// ... call the API ...
	timer.Stop("200")

Expose metrics with promhttp:

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
