package dashboard

// EmptyStateRenderer shows a message instead of data.
type EmptyStateRenderer struct {
	surface Surface
}

// NewEmptyStateRenderer creates an empty-state renderer bound to surface.
func NewEmptyStateRenderer(surface Surface) *EmptyStateRenderer {
	return &EmptyStateRenderer{surface: surface}
}

// Render replaces the table with message and clears the summary fields.
func (r *EmptyStateRenderer) Render(message string) {
	r.surface.SetMessageRow(message)
	r.surface.SetTitle(TitleNoData)
	r.surface.SetUpdateTime("")
	if is, ok := r.surface.(InsightSurface); ok {
		is.SetInsight("")
	}
}
