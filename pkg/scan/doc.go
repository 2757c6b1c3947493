// Package scan is the client for the dependency scan API.
//
// A scan submits the resolved dependency set of a repository and receives
// vulnerability findings, skeleton-key gadget matches, a compositional risk
// summary, zombie-package warnings and integrity alerts:
//
//	client, err := scan.NewClient(scan.Config{
//	    BaseURL: "https://scanner.internal.example",
//	    APIKey:  os.Getenv("LOCKSCAN_API_KEY"),
//	})
//	resp, err := client.Scan(ctx, scan.NewRequest(deps))
//
// The API key is sent as a bearer token and never logged. Requests are
// retried on network errors, 5xx and 429 responses; a 429 that outlives the
// retry budget surfaces as errors.RateLimitedError. Responses are cached by
// [CacheDigest] when a cache is configured.
package scan
