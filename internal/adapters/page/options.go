package page

// Option configures a Page.
type Option func(*Page)

// WithChartJSURL sets the script src the browser loads Chart.js from.
func WithChartJSURL(url string) Option {
	return func(p *Page) {
		if url != "" {
			p.chartJSURL = url
		}
	}
}

// WithEngine shares an existing chart engine with the page.
func WithEngine(e *ChartJS) Option {
	return func(p *Page) {
		if e != nil {
			p.engine = e
		}
	}
}
