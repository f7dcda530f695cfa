package webhook

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single delivery attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultBodyLimit is the size of the response excerpt kept for diagnostics.
	DefaultBodyLimit = 500
	// DefaultUserAgent identifies delivery requests.
	DefaultUserAgent = "fastforward-webhooks/1.0"
)

type executorOptions struct {
	client    *http.Client
	timeout   time.Duration
	bodyLimit int
	userAgent string
	headers   map[string]string
}

// Option configures an Executor.
type Option func(*executorOptions)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *executorOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the pooled default client.
// Useful for custom transports, proxies, or testing.
func WithHTTPClient(client *http.Client) Option {
	return func(o *executorOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithBodyLimit sets how many bytes of the response body are kept.
func WithBodyLimit(n int) Option {
	return func(o *executorOptions) {
		if n > 0 {
			o.bodyLimit = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *executorOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithHeader adds a static header to every request. Delivery headers cannot be overridden.
func WithHeader(key, value string) Option {
	return func(o *executorOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}
