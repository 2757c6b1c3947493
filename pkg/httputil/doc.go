// Package httputil provides retry helpers shared by the HTTP clients.
//
// [Retry] re-runs an operation with exponential backoff, but only for
// errors wrapped in [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    if httputil.ShouldRetry(resp.StatusCode) {
//	        return &httputil.RetryableError{
//	            Err:   fmt.Errorf("status %d", resp.StatusCode),
//	            After: httputil.RetryAfter(resp.Header, time.Now()),
//	        }
//	    }
//	    return nil
//	})
//
// A Retry-After value from the server replaces the computed backoff for the
// next attempt.
package httputil
