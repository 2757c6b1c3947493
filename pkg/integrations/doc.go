// Package integrations provides the shared HTTP client used to talk to
// remote APIs.
//
// # Client
//
// [Client] wraps net/http with the behavior every API client needs:
//
//   - JSON request and response bodies ([Client.PostJSON], [Client.Get])
//   - a per-request X-Request-ID for log correlation
//   - status mapping onto pkg/errors codes, with [APIError] as the cause
//   - retry of network errors, 5xx and 429 via pkg/httputil
//   - response caching through any [cache.Cache] ([Client.Cached])
//
// API-specific clients embed it:
//
//	type Client struct {
//	    *integrations.Client
//	    baseURL string
//	}
//
// Every request is reported to the registered observability HTTP hooks.
package integrations
