package api

import (
	"github.com/okian/tasklytics/pkg/logger"
)

const (
	defaultReloadRPS   = 0.2
	defaultReloadBurst = 1
)

type serverConfig struct {
	reloadRPS   float64
	reloadBurst int
	logger      logger.Logger
}

// Option configures the Server.
type Option func(*serverConfig)

// WithReloadLimit throttles POST /reload. rps of zero removes the limit.
func WithReloadLimit(rps float64, burst int) Option {
	return func(c *serverConfig) {
		if rps >= 0 {
			c.reloadRPS = rps
		}
		if burst > 0 {
			c.reloadBurst = burst
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
