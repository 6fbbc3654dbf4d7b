/*
Package resilience provides a circuit breaker for outbound calls.

The breaker guards the generative language API client. Only errors the caller
classifies as failures (via Settings.IsSuccessful) count toward tripping, so a
remote 4xx or 5xx with a readable body passes through without opening the
circuit while connection-level failures do.

# Usage

	breaker := resilience.New("gemini", resilience.Settings{
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || gemini.IsAPIError(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker state", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	models, err := resilience.Execute(breaker, func() ([]string, error) {
		return fetch(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
