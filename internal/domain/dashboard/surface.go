// Package dashboard implements the fetch -> validate -> render cycle behind
// the dashboard page.
//
// The package never touches HTML. It renders into a Surface (title, update
// label, table body) and hands chart configuration to a ChartEngine; adapters
// decide what those become.
package dashboard

// Columns is the fixed number of table columns: category, latest, previous, growth.
const Columns = 4

// Surface is the display the dashboard renders into.
type Surface interface {
	// SetTitle replaces the heading text.
	SetTitle(text string)
	// SetUpdateTime replaces the update-time label.
	SetUpdateTime(text string)
	// ClearRows removes every table row, message rows included.
	ClearRows()
	// AppendRow appends one data row.
	AppendRow(cells [Columns]string)
	// SetMessageRow replaces the table contents with one full-width message row.
	SetMessageRow(message string)
}

// InsightSurface is implemented by surfaces that can show the insight line.
type InsightSurface interface {
	SetInsight(text string)
}

// BatchSurface is implemented by surfaces that can publish a group of updates
// at once. Readers see the state before fn or after it, never in between.
type BatchSurface interface {
	Batch(fn func())
}

// Chart is a live chart instance.
type Chart interface {
	// Destroy releases the instance. Calling it twice is a no-op.
	Destroy()
}

// ChartEngine creates chart instances from a configuration object.
type ChartEngine interface {
	NewChart(cfg ChartConfig) (Chart, error)
}

// ChartConfig mirrors the Chart.js configuration object.
type ChartConfig struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

// ChartData holds labels and series.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one bar series.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor"`
}

// ChartOptions carries axis and legend styling.
type ChartOptions struct {
	Responsive bool            `json:"responsive"`
	Scales     map[string]Axis `json:"scales"`
	Plugins    Plugins         `json:"plugins"`
}

// Axis styles one chart axis.
type Axis struct {
	BeginAtZero bool        `json:"beginAtZero,omitempty"`
	Grid        ColorOption `json:"grid"`
	Ticks       ColorOption `json:"ticks"`
}

// ColorOption is a {color: ...} option block.
type ColorOption struct {
	Color string `json:"color"`
}

// Plugins holds plugin options; only the legend is configured.
type Plugins struct {
	Legend Legend `json:"legend"`
}

// Legend styles the legend labels.
type Legend struct {
	Labels ColorOption `json:"labels"`
}
