// Package upstream fetches the dashboard payload from the remote JSON endpoint.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/tasklytics/internal/domain/model"
	"github.com/okian/tasklytics/pkg/logger"
	"github.com/okian/tasklytics/pkg/metrics"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxFailures = 5
	defaultCooldown    = 30 * time.Second

	maxBodyBytes = 8 << 20

	component = "upstream"
)

// Client issues one GET per Fetch. It never retries.
type Client struct {
	url         string
	http        *http.Client
	timeout     time.Duration
	maxFailures uint32
	cooldown    time.Duration
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
}

// NewClient creates a client for url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:         url,
		http:        &http.Client{},
		timeout:     defaultTimeout,
		maxFailures: defaultMaxFailures,
		cooldown:    defaultCooldown,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.Timeout = c.timeout

	if c.maxFailures > 0 {
		maxFailures := c.maxFailures
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    component,
			Timeout: c.cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.UpdateBreakerState(int(to))
				c.logger.Warn(context.Background(), "breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// URL returns the endpoint the client fetches.
func (c *Client) URL() string { return c.url }

// State reports the breaker state; closed when the breaker is disabled.
func (c *Client) State() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// Fetch retrieves and decodes the payload.
func (c *Client) Fetch(ctx context.Context) (*model.Payload, error) {
	if c.breaker == nil {
		return c.fetch(ctx)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordErrorByComponent(component, "breaker_open")
		return nil, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*model.Payload), nil
}

func (c *Client) fetch(ctx context.Context) (*model.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent(component, "transport")
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamResponse(strconv.Itoa(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordErrorByComponent(component, "status")
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordErrorByComponent(component, "read")
		return nil, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}

	c.logger.Debug(ctx, "upstream response", logger.Int("bytes", len(body)))

	var payload model.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordErrorByComponent(component, "decode")
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &payload, nil
}
