package page

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sync"

	"github.com/okian/tasklytics/internal/domain/dashboard"
	"github.com/okian/tasklytics/pkg/metrics"
)

// ChartJS is a dashboard.ChartEngine whose charts are Chart.js configurations
// embedded into the page and instantiated by the browser.
type ChartJS struct {
	mu      sync.Mutex
	seq     int
	live    map[int]template.JS
	current int
}

// NewChartJS creates an engine with no live charts.
func NewChartJS() *ChartJS {
	return &ChartJS{live: make(map[int]template.JS)}
}

// NewChart encodes cfg and registers it as the current chart.
func (e *ChartJS) NewChart(cfg dashboard.ChartConfig) (dashboard.Chart, error) {
	for _, ds := range cfg.Data.Datasets {
		if len(ds.Data) != len(cfg.Data.Labels) {
			return nil, fmt.Errorf("%w: dataset %q has %d values for %d labels",
				ErrChartConfig, ds.Label, len(ds.Data), len(cfg.Data.Labels))
		}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChartConfig, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	id := e.seq
	e.live[id] = template.JS(raw) //nolint:gosec // produced by json.Marshal
	e.current = id
	metrics.UpdateChartInstances(len(e.live))

	return &chartHandle{engine: e, id: id}, nil
}

// Active returns the number of charts not yet destroyed.
func (e *ChartJS) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}

// Current returns the encoded configuration of the newest live chart.
func (e *ChartJS) Current() (template.JS, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.live[e.current]
	return cfg, ok
}

func (e *ChartJS) release(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.live, id)
	if e.current == id {
		e.current = 0
	}
	metrics.UpdateChartInstances(len(e.live))
}

type chartHandle struct {
	once   sync.Once
	engine *ChartJS
	id     int
}

func (h *chartHandle) Destroy() {
	h.once.Do(func() { h.engine.release(h.id) })
}
