// Package page renders the dashboard as a server-side HTML page.
//
// Page implements dashboard.Surface and dashboard.InsightSurface. Its chart
// comes from a ChartJS engine; Render writes the whole document.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/okian/tasklytics/internal/domain/dashboard"
)

// DefaultChartJSURL is the Chart.js UMD bundle loaded by the page.
const DefaultChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

// InitialTitle is shown before the first cycle finishes.
const InitialTitle = "Loading..."

//go:embed templates/*.gohtml
var templatesFS embed.FS

var (
	cellPolicy = bluemonday.StrictPolicy()

	dashboardTmpl = template.Must(template.New("dashboard.gohtml").
			Funcs(template.FuncMap{"cell": sanitizeCell}).
			ParseFS(templatesFS, "templates/*.gohtml"))
)

// sanitizeCell strips markup from upstream text. The result is already escaped.
func sanitizeCell(s string) template.HTML {
	return template.HTML(cellPolicy.Sanitize(s)) //nolint:gosec // bluemonday output
}

// View is a consistent copy of the page state.
type View struct {
	Title      string
	UpdateTime string
	Rows       [][dashboard.Columns]string
	Message    string
	Insight    string
	Chart      template.JS
	HasChart   bool
	ChartJSURL string
	Columns    int
}

// state is everything a reader of the page sees.
type state struct {
	title      string
	updateTime string
	rows       [][dashboard.Columns]string
	message    string
	insight    string
	chart      template.JS
	hasChart   bool
}

func (s state) clone() state {
	s.rows = append([][dashboard.Columns]string(nil), s.rows...)
	return s
}

// Page holds the rendered dashboard state.
//
// Updates made inside Batch are staged and published together, chart included.
type Page struct {
	mu     sync.RWMutex
	cur    state
	staged *state

	batchMu sync.Mutex

	engine     *ChartJS
	chartJSURL string
}

// New creates a page in its pre-load state.
func New(opts ...Option) *Page {
	p := &Page{
		cur:        state{title: InitialTitle},
		chartJSURL: DefaultChartJSURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = NewChartJS()
	}
	return p
}

// Engine returns the chart engine whose current chart the page shows.
func (p *Page) Engine() *ChartJS { return p.engine }

// Batch runs fn with every update staged, then publishes them at once.
// Batches are serialized.
func (p *Page) Batch(fn func()) {
	p.batchMu.Lock()
	defer p.batchMu.Unlock()

	p.mu.Lock()
	next := p.cur.clone()
	p.staged = &next
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.syncChart(p.staged)
		p.cur = *p.staged
		p.staged = nil
	}()

	fn()
}

// update applies fn to the staged state inside a batch, otherwise publishes it directly.
func (p *Page) update(fn func(*state)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.staged != nil {
		fn(p.staged)
		return
	}
	fn(&p.cur)
	p.syncChart(&p.cur)
}

// syncChart copies the engine's current chart into s. Callers hold p.mu.
func (p *Page) syncChart(s *state) {
	s.chart, s.hasChart = p.engine.Current()
}

// SetTitle replaces the heading text.
func (p *Page) SetTitle(text string) {
	p.update(func(s *state) { s.title = text })
}

// SetUpdateTime replaces the update-time label.
func (p *Page) SetUpdateTime(text string) {
	p.update(func(s *state) { s.updateTime = text })
}

// ClearRows removes every data and message row.
func (p *Page) ClearRows() {
	p.update(func(s *state) {
		s.rows = nil
		s.message = ""
	})
}

// AppendRow appends one data row.
func (p *Page) AppendRow(cells [dashboard.Columns]string) {
	p.update(func(s *state) { s.rows = append(s.rows, cells) })
}

// SetMessageRow replaces the table with a single full-width message row.
func (p *Page) SetMessageRow(message string) {
	p.update(func(s *state) {
		s.rows = nil
		s.message = message
	})
}

// SetInsight replaces the insight line. An empty text hides it.
func (p *Page) SetInsight(text string) {
	p.update(func(s *state) { s.insight = text })
}

// View returns a copy of the published state.
func (p *Page) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return View{
		Title:      p.cur.title,
		UpdateTime: p.cur.updateTime,
		Rows:       append([][dashboard.Columns]string(nil), p.cur.rows...),
		Message:    p.cur.message,
		Insight:    p.cur.insight,
		Chart:      p.cur.chart,
		HasChart:   p.cur.hasChart,
		ChartJSURL: p.chartJSURL,
		Columns:    dashboard.Columns,
	}
}

// Render writes the HTML document. Nothing is written when rendering fails.
func (p *Page) Render(w io.Writer) error {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, p.View()); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}
