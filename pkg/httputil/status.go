package httputil

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxRetryAfter caps server-requested waits.
const maxRetryAfter = 2 * time.Minute

// RetryAfter parses a Retry-After header given in seconds or as an HTTP
// date. It returns zero when the header is absent or unparseable.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	}
	if d < 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

// ShouldRetry reports whether a response status indicates a transient
// server-side condition.
func ShouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
