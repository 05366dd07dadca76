package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tasklytics/internal/domain/insight"
	"github.com/okian/tasklytics/internal/domain/model"
	"github.com/okian/tasklytics/pkg/logger"
	"github.com/okian/tasklytics/pkg/metrics"
)

// Fetcher retrieves the upstream payload.
type Fetcher interface {
	Fetch(ctx context.Context) (*model.Payload, error)
}

// Outcome is the visual state a cycle ended in.
type Outcome string

// Cycle outcomes.
const (
	OutcomePending  Outcome = "pending"
	OutcomeRendered Outcome = Outcome(metrics.OutcomeRendered)
	OutcomeEmpty    Outcome = Outcome(metrics.OutcomeEmpty)
	OutcomeFailed   Outcome = Outcome(metrics.OutcomeFailed)
)

// Result describes one finished load cycle.
type Result struct {
	LoadID   string
	Outcome  Outcome
	Message  string // empty-state text; empty when data rendered
	Records  int
	Duration time.Duration
	Err      error // wraps ErrEmptyResult or ErrFetchFailure; nil when data rendered
}

// Snapshot is the state left behind by the latest cycle.
type Snapshot struct {
	LoadID  string         `json:"load_id"`
	Outcome Outcome        `json:"outcome"`
	Message string         `json:"message,omitempty"`
	Records []model.Record `json:"data"`
	Insight string         `json:"insight"`
	Updated time.Time      `json:"updated"`
}

// Loader runs the fetch -> validate -> render cycle. Cycles are serialized.
type Loader struct {
	mu sync.Mutex

	fetcher Fetcher
	surface Surface
	table   *TableRenderer
	chart   *ChartRenderer
	summary *SummaryRenderer
	empty   *EmptyStateRenderer

	logger     logger.Logger
	now        func() time.Time
	timeLayout string
	nextID     func() string

	snapMu sync.RWMutex
	last   Snapshot
}

// NewLoader wires the renderers to surface and engine.
func NewLoader(fetcher Fetcher, surface Surface, engine ChartEngine, opts ...Option) *Loader {
	l := &Loader{
		fetcher:    fetcher,
		surface:    surface,
		logger:     logger.Nop(),
		now:        time.Now,
		timeLayout: DefaultTimeLayout,
		nextID:     func() string { return uuid.NewString() },
		last:       Snapshot{Outcome: OutcomePending},
	}
	for _, opt := range opts {
		opt(l)
	}

	l.table = NewTableRenderer(surface)
	l.chart = NewChartRenderer(engine)
	l.summary = NewSummaryRenderer(surface, l.now, l.timeLayout)
	l.empty = NewEmptyStateRenderer(surface)
	return l
}

// Load runs one cycle. It never returns an error: failures end in the empty state
// and are reported through Result.
func (l *Loader) Load(ctx context.Context) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	res := Result{LoadID: l.nextID()}
	log := l.logger.With(logger.String("load_id", res.LoadID))

	payload, err := l.fetcher.Fetch(ctx)
	metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))

	l.commit(func() {
		switch {
		case err != nil:
			log.Error(ctx, "error fetching data", logger.Error(err))
			l.fail(&res, fmt.Errorf("%w: %w", ErrFetchFailure, err))
		case payload.Empty():
			log.Warn(ctx, "upstream returned no records")
			l.showEmpty(&res, OutcomeEmpty, MessageEmptyResult, ErrEmptyResult)
		default:
			line, err := l.render(payload.Data)
			if err != nil {
				log.Error(ctx, "error rendering data", logger.Error(err))
				l.fail(&res, fmt.Errorf("%w: %w", ErrFetchFailure, err))
				return
			}
			res.Outcome = OutcomeRendered
			res.Records = len(payload.Data)
			l.setSnapshot(res, payload.Data, line)
		}
	})

	res.Duration = time.Since(start)
	if err := metrics.RecordLoadCycle(string(res.Outcome)); err != nil {
		log.Warn(ctx, "unrecorded load outcome", logger.Error(err))
	}
	if res.Outcome == OutcomeRendered {
		metrics.MarkLoadSuccess(l.now())
	}
	metrics.UpdateRecordsRendered(res.Records)

	log.Info(ctx, "load cycle finished",
		logger.String("outcome", string(res.Outcome)),
		logger.Int("records", res.Records),
		logger.Duration("duration", res.Duration),
	)
	return res
}

// render runs table, chart and summary over the same records and returns the insight line.
func (l *Loader) render(records []model.Record) (string, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRenderLatency(float64(time.Since(start).Milliseconds()))
	}()

	l.table.Render(records)
	if err := l.chart.Render(records); err != nil {
		return "", err
	}
	l.summary.Render(records)

	line := insight.Generate(records)
	if is, ok := l.surface.(InsightSurface); ok {
		is.SetInsight(line)
	}
	return line, nil
}

// commit applies fn to the surface as one update when the surface supports it.
func (l *Loader) commit(fn func()) {
	if b, ok := l.surface.(BatchSurface); ok {
		b.Batch(fn)
		return
	}
	fn()
}

func (l *Loader) fail(res *Result, err error) {
	l.showEmpty(res, OutcomeFailed, MessageFetchFailure, err)
}

func (l *Loader) showEmpty(res *Result, outcome Outcome, message string, err error) {
	l.empty.Render(message)
	res.Outcome = outcome
	res.Message = message
	res.Err = err
	l.setSnapshot(*res, nil, "")
}

func (l *Loader) setSnapshot(res Result, records []model.Record, line string) {
	snap := Snapshot{
		LoadID:  res.LoadID,
		Outcome: res.Outcome,
		Message: res.Message,
		Records: records,
		Insight: line,
		Updated: l.now(),
	}

	l.snapMu.Lock()
	l.last = snap
	l.snapMu.Unlock()
}

// Snapshot returns the state left by the latest cycle.
func (l *Loader) Snapshot() Snapshot {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	return l.last
}

// Close destroys the current chart instance.
func (l *Loader) Close() {
	l.chart.Close()
}
