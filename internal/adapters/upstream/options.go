package upstream

import (
	"net/http"
	"time"

	"github.com/okian/tasklytics/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds a single request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithBreaker configures the circuit breaker. maxFailures of zero disables it.
func WithBreaker(maxFailures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		c.maxFailures = maxFailures
		if cooldown > 0 {
			c.cooldown = cooldown
		}
	}
}

// WithHTTPClient sends requests through a copy of hc, so hc itself is never
// modified. The copy's Timeout comes from WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}
