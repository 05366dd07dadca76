package dashboard

import (
	"fmt"
	"sync"

	"github.com/okian/tasklytics/internal/domain/model"
)

// Series labels and colors.
const (
	SeriesLatest   = "Latest"
	SeriesPrevious = "Previous"

	colorLatest     = "#3b82f6"
	colorPrevious   = "#64748b"
	colorGridY      = "#475569"
	colorGridX      = "#334155"
	colorTicks      = "#cbd5e1"
	colorLegendText = "#e2e8f0"
)

// ChartRenderer owns the single current chart instance.
type ChartRenderer struct {
	mu      sync.Mutex
	engine  ChartEngine
	current Chart
}

// NewChartRenderer creates a chart renderer that draws through engine.
func NewChartRenderer(engine ChartEngine) *ChartRenderer {
	return &ChartRenderer{engine: engine}
}

// Render disposes of the previous chart and creates a new one for records.
func (r *ChartRenderer) Render(records []model.Record) error {
	cfg := BuildChartConfig(records)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.current.Destroy()
		r.current = nil
	}

	chart, err := r.engine.NewChart(cfg)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	r.current = chart
	return nil
}

// Close destroys the current chart, if any.
func (r *ChartRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Destroy()
		r.current = nil
	}
}

// BuildChartConfig turns records into a grouped bar chart configuration.
func BuildChartConfig(records []model.Record) ChartConfig {
	labels := make([]string, len(records))
	latest := make([]float64, len(records))
	previous := make([]float64, len(records))
	for i := range records {
		labels[i] = records[i].Category
		latest[i] = records[i].Latest.InexactFloat64()
		previous[i] = records[i].Previous.InexactFloat64()
	}

	return ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels: labels,
			Datasets: []Dataset{
				{Label: SeriesLatest, Data: latest, BackgroundColor: colorLatest},
				{Label: SeriesPrevious, Data: previous, BackgroundColor: colorPrevious},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Scales: map[string]Axis{
				"y": {BeginAtZero: true, Grid: ColorOption{colorGridY}, Ticks: ColorOption{colorTicks}},
				"x": {Grid: ColorOption{colorGridX}, Ticks: ColorOption{colorTicks}},
			},
			Plugins: Plugins{Legend: Legend{Labels: ColorOption{colorLegendText}}},
		},
	}
}
