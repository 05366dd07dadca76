package dashboard

import (
	"github.com/okian/tasklytics/internal/domain/model"
)

// GrowthPlaceholder is shown when a record has no growth value.
const GrowthPlaceholder = "--"

// TableRenderer writes one row per record.
type TableRenderer struct {
	surface Surface
}

// NewTableRenderer creates a table renderer bound to surface.
func NewTableRenderer(surface Surface) *TableRenderer {
	return &TableRenderer{surface: surface}
}

// Render clears the table and appends the records in input order.
func (r *TableRenderer) Render(records []model.Record) {
	r.surface.ClearRows()
	for i := range records {
		r.surface.AppendRow(Row(&records[i]))
	}
}

// Row formats a record as table cells.
func Row(rec *model.Record) [Columns]string {
	growth := GrowthPlaceholder
	if rec.Growth.Valid {
		growth = rec.Growth.Decimal.String()
	}
	return [Columns]string{rec.Category, rec.Latest.String(), rec.Previous.String(), growth}
}
