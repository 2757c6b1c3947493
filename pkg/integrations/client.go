package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lockscan/pkg/cache"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/httputil"
	"github.com/matzehuels/lockscan/pkg/observability"
)

// maxErrorBody bounds how much of an error response is kept as the message.
const maxErrorBody = 4 << 10

// RequestIDHeader carries a per-request UUID for correlating client and
// server logs.
const RequestIDHeader = "X-Request-ID"

// Client provides shared HTTP functionality for API clients: JSON requests,
// response caching, retries and default headers.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client that caches into c for ttl. A nil cache
// disables caching. Headers are applied to every request.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:     NewHTTPClient(),
		cache:    c,
		ttl:      ttl,
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; it is retried per [WithRetry].
func (c *Client) Cached(ctx context.Context, key, keyType string, refresh bool, v any, fetch func() error) error {
	hooks := observability.Cache()
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok && json.Unmarshal(data, v) == nil {
			hooks.OnCacheHit(ctx, keyType)
			return nil
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	if err := c.Retry(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, keyType, len(data))
		}
	}
	return nil
}

// Retry runs fn with the client's retry policy.
func (c *Client) Retry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, c.attempts, c.delay, fn)
}

// PostJSON sends in as a JSON body and decodes the response into out.
// It makes a single attempt; transient failures come back wrapped in
// [httputil.RetryableError] for use inside [Client.Retry].
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return lserrors.Wrap(lserrors.ErrCodeInternal, err, "encode request")
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(body), out)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.do(ctx, http.MethodGet, url, nil, v)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return lserrors.Wrap(lserrors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httputil.Retryable(lserrors.Wrap(lserrors.ErrCodeNetwork, err, "%s %s", method, host))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return lserrors.Wrap(lserrors.ErrCodeNetwork, err, "decode response from %s", host)
	}
	return nil
}

// checkStatus maps a response status to a coded error. Server errors and
// rate limiting are retryable.
func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: code,
		Message:    errorMessage(msg),
		Retryable:  httputil.ShouldRetry(code),
	}

	switch {
	case code == http.StatusUnauthorized:
		return lserrors.Wrap(lserrors.ErrCodeUnauthorized, apiErr, "invalid or missing API key")
	case code == http.StatusForbidden:
		return lserrors.Wrap(lserrors.ErrCodeForbidden, apiErr, "access denied")
	case code == http.StatusNotFound:
		return lserrors.Wrap(lserrors.ErrCodeNotFound, apiErr, "endpoint not found")
	case code == http.StatusTooManyRequests:
		after := httputil.RetryAfter(resp.Header, time.Now())
		return &httputil.RetryableError{
			Err: &lserrors.RateLimitedError{
				RetryAfter: int(after / time.Second),
				Message:    apiErr.Message,
			},
			After: after,
		}
	case apiErr.Retryable:
		return httputil.Retryable(lserrors.Wrap(lserrors.ErrCodeNetwork, apiErr, "server error"))
	default:
		return lserrors.Wrap(lserrors.ErrCodeInvalidInput, apiErr, "request rejected")
	}
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an
// error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(bytes.TrimSpace(body))
}
