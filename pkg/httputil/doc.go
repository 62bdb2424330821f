// Package httputil provides the retry policy shared by the outbound HTTP
// clients (geocoding, static map images, text generation).
//
// Only failures explicitly marked as transient are retried. Clients wrap
// connection errors and 5xx/429 responses with [Retryable]; everything else
// (4xx, decode errors) fails immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Default settings are 3 attempts with a 1 second initial delay that
// doubles after each failure. Cancellation of ctx aborts the wait.
package httputil
