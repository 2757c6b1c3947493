package integrations

import (
	"fmt"
	"net/http"
	"time"
)

const httpTimeout = 30 * time.Second

// APIError describes a non-success HTTP response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// NewHTTPClient creates an HTTP client with the default request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
