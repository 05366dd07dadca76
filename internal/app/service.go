// Package service wires the dashboard loader to its upstream, page and
// schedule, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/tasklytics/internal/adapters/page"
	"github.com/okian/tasklytics/internal/adapters/upstream"
	"github.com/okian/tasklytics/internal/domain/dashboard"
	"github.com/okian/tasklytics/pkg/logger"
	"github.com/okian/tasklytics/pkg/metrics"
)

// Sentinel errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrSchedule   = errors.New("invalid refresh schedule")
)

// Service owns the page and runs load cycles into it.
type Service struct {
	mu sync.RWMutex

	// Core components
	page    *page.Page
	client  *upstream.Client
	fetcher dashboard.Fetcher
	loader  *dashboard.Loader
	cron    *cron.Cron

	// Configuration
	endpoint           string
	fetchTimeout       time.Duration
	breakerMaxFailures uint32
	breakerCooldown    time.Duration
	refreshSchedule    string
	chartJSURL         string
	timeLayout         string
	clock              func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEndpoint sets the upstream URL.
func WithEndpoint(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.endpoint = url
		}
	}
}

// WithFetchTimeout bounds each upstream request. Zero disables the timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.fetchTimeout = d
		}
	}
}

// WithBreaker configures the upstream circuit breaker. maxFailures of zero disables it.
func WithBreaker(maxFailures int, cooldown time.Duration) Option {
	return func(s *Service) {
		if maxFailures >= 0 {
			s.breakerMaxFailures = uint32(maxFailures) //nolint:gosec // checked above
		}
		if cooldown > 0 {
			s.breakerCooldown = cooldown
		}
	}
}

// WithRefreshSchedule re-runs the load cycle on a standard cron expression.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.refreshSchedule = spec
	}
}

// WithChartJSURL sets the Chart.js script the page loads.
func WithChartJSURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.chartJSURL = url
		}
	}
}

// WithTimeLayout sets the layout of the update-time label.
func WithTimeLayout(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.timeLayout = layout
		}
	}
}

// WithFetcher replaces the upstream client, mostly for tests and the snapshot command.
func WithFetcher(f dashboard.Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithClock sets the clock used for rendered timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetchTimeout:       10 * time.Second,
		breakerMaxFailures: 5,
		breakerCooldown:    30 * time.Second,
		chartJSURL:         page.DefaultChartJSURL,
		timeLayout:         dashboard.DefaultTimeLayout,
		clock:              time.Now,
		logger:             nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the components, runs the first load cycle and starts the
// refresh schedule. A failed first cycle is not an error: the page shows it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard service...", logger.String("endpoint", s.endpoint))

	fetcher := s.fetcher
	if fetcher == nil {
		s.client = upstream.NewClient(s.endpoint,
			upstream.WithTimeout(s.fetchTimeout),
			upstream.WithBreaker(s.breakerMaxFailures, s.breakerCooldown),
			upstream.WithLogger(s.logger.Named("upstream")),
		)
		fetcher = s.client
	}

	s.page = page.New(page.WithChartJSURL(s.chartJSURL))
	s.loader = dashboard.NewLoader(fetcher, s.page, s.page.Engine(),
		dashboard.WithLogger(s.logger.Named("loader")),
		dashboard.WithTimeLayout(s.timeLayout),
		dashboard.WithClock(s.clock),
	)

	if s.refreshSchedule != "" {
		c := cron.New()
		loader := s.loader
		if _, err := c.AddFunc(s.refreshSchedule, func() {
			metrics.RecordScheduledRefresh()
			loader.Load(context.Background())
		}); err != nil {
			s.loader.Close()
			return fmt.Errorf("%w: %q: %w", ErrSchedule, s.refreshSchedule, err)
		}
		s.cron = c
	}

	res := s.loader.Load(ctx)
	if res.Err != nil {
		s.logger.Warn(ctx, "initial load did not render data",
			logger.String("outcome", string(res.Outcome)),
			logger.Error(res.Err),
		)
	}

	if s.cron != nil {
		s.cron.Start()
	}

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "dashboard service started",
		logger.String("outcome", string(res.Outcome)),
		logger.Int("records", res.Records),
		logger.String("refresh_schedule", s.refreshSchedule),
	)

	return nil
}

// Stop halts the schedule, waits for a running scheduled cycle and releases the chart.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping dashboard service...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	if s.loader != nil {
		s.loader.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// Reload runs one load cycle now. The cycle outlives ctx's cancellation and is
// bounded by the fetch timeout instead.
func (s *Service) Reload(ctx context.Context) dashboard.Result {
	s.mu.RLock()
	loader := s.loader
	started := s.started
	s.mu.RUnlock()

	if !started {
		return dashboard.Result{
			Outcome: dashboard.OutcomeFailed,
			Message: dashboard.MessageFetchFailure,
			Err:     fmt.Errorf("%w: %w", dashboard.ErrFetchFailure, ErrNotStarted),
		}
	}
	return loader.Load(context.WithoutCancel(ctx))
}

// Snapshot returns the state left by the latest cycle.
func (s *Service) Snapshot() dashboard.Snapshot {
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()

	if loader == nil {
		return dashboard.Snapshot{Outcome: dashboard.OutcomePending}
	}
	return loader.Snapshot()
}

// RenderPage writes the dashboard document.
func (s *Service) RenderPage(w io.Writer) error {
	s.mu.RLock()
	p := s.page
	s.mu.RUnlock()

	if p == nil {
		return ErrNotStarted
	}
	return p.Render(w)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"endpoint":         s.endpoint,
		"fetchTimeoutMs":   s.fetchTimeout.Milliseconds(),
		"refreshSchedule":  s.refreshSchedule,
		"breakerThreshold": s.breakerMaxFailures,
	}

	if s.started {
		snap := s.loader.Snapshot()
		stats["startedAt"] = s.startedAt
		stats["loadId"] = snap.LoadID
		stats["outcome"] = snap.Outcome
		stats["records"] = len(snap.Records)
		stats["lastUpdated"] = snap.Updated

		active := s.page.Engine().Active()
		stats["chartInstances"] = active
		metrics.UpdateChartInstances(active)

		if s.client != nil {
			state := s.client.State()
			stats["breakerState"] = state.String()
			metrics.UpdateBreakerState(int(state))
		}
		if s.cron != nil {
			if entries := s.cron.Entries(); len(entries) > 0 {
				stats["nextRefresh"] = entries[0].Next
			}
		}
	}

	return stats
}
