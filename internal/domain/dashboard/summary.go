package dashboard

import (
	"time"

	"github.com/okian/tasklytics/internal/domain/model"
)

// DefaultTimeLayout renders like a browser's toLocaleString in en-US.
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

const (
	titlePrefix  = "Latest Update: "
	updatePrefix = "Last Updated: "
)

// SummaryRenderer writes the heading and the update-time label.
//
// The heading uses the first record's date; the label uses the render clock.
type SummaryRenderer struct {
	surface Surface
	now     func() time.Time
	layout  string
}

// NewSummaryRenderer creates a summary renderer. A nil clock means time.Now.
func NewSummaryRenderer(surface Surface, now func() time.Time, layout string) *SummaryRenderer {
	if now == nil {
		now = time.Now
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return &SummaryRenderer{surface: surface, now: now, layout: layout}
}

// Render writes the summary for records. records must not be empty.
func (r *SummaryRenderer) Render(records []model.Record) {
	r.surface.SetTitle(titlePrefix + records[0].Date)
	r.surface.SetUpdateTime(updatePrefix + r.now().Local().Format(r.layout))
}
