// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and TASKLYTICS_* env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"time"
)

// Default values.
const (
	DefaultEndpointURL = "https://script.google.com/macros/s/AKfycbxYourDeploymentID/exec"
	DefaultChartJSURL  = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
	DefaultTimeLayout  = "1/2/2006, 3:04:05 PM"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EndpointURL is the upstream JSON endpoint returning {"data": [...]}.
	EndpointURL string `koanf:"endpoint_url"`

	// FetchTimeoutMS bounds one upstream request. Zero disables the timeout.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// BreakerMaxFailures is the number of consecutive upstream failures that open the breaker.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`

	// BreakerCooldownMS is how long the breaker stays open before probing again.
	BreakerCooldownMS int `koanf:"breaker_cooldown_ms"`

	// RefreshSchedule is a standard 5-field cron expression. Empty disables scheduled refresh.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// ReloadRPS and ReloadBurst throttle POST /reload.
	ReloadRPS   float64 `koanf:"reload_rps"`
	ReloadBurst int     `koanf:"reload_burst"`

	// ChartJSURL is the script the page loads to draw the chart.
	ChartJSURL string `koanf:"chartjs_url"`

	// TimeLayout formats the "Last Updated" label.
	TimeLayout string `koanf:"time_layout"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		EndpointURL:        DefaultEndpointURL,
		FetchTimeoutMS:     10_000,
		BreakerMaxFailures: 5,
		BreakerCooldownMS:  30_000,
		RefreshSchedule:    "",
		ReloadRPS:          0.2,
		ReloadBurst:        1,
		ChartJSURL:         DefaultChartJSURL,
		TimeLayout:         DefaultTimeLayout,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// BreakerCooldown returns BreakerCooldownMS as a duration.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownMS) * time.Millisecond
}
