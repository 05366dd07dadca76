// Package insight produces a one-line, human-readable reading of a dataset.
package insight

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/tasklytics/internal/domain/model"
)

// NoData is returned for an empty dataset.
const NoData = "No data available for insight generation."

// Verdicts by the top category's share of the total.
const (
	VerdictDominant = "Outstanding dominance in this category!"
	VerdictBalanced = "More balanced distribution across categories."
	VerdictModerate = "Healthy distribution with moderate concentration."
)

var (
	dominantShare = decimal.NewFromInt(60)
	balancedShare = decimal.NewFromInt(20)
	hundred       = decimal.NewFromInt(100)
)

// Summary holds the figures behind an insight line.
type Summary struct {
	TopCategory string
	TopValue    decimal.Decimal
	Total       decimal.Decimal
	Mean        decimal.Decimal
	Share       decimal.Decimal // percent of Total held by TopCategory
}

// Summarize computes the insight figures over the latest values.
// The first record wins ties. ok is false for an empty dataset.
func Summarize(records []model.Record) (s Summary, ok bool) {
	if len(records) == 0 {
		return Summary{}, false
	}

	top := 0
	total := decimal.Zero
	for i := range records {
		total = total.Add(records[i].Latest)
		if records[i].Latest.GreaterThan(records[top].Latest) {
			top = i
		}
	}

	s = Summary{
		TopCategory: records[top].Category,
		TopValue:    records[top].Latest,
		Total:       total,
		Mean:        total.Div(decimal.NewFromInt(int64(len(records)))),
		Share:       decimal.Zero,
	}
	if !total.IsZero() {
		s.Share = s.TopValue.Div(total).Mul(hundred)
	}
	return s, true
}

// Verdict classifies a share percentage.
func Verdict(share decimal.Decimal) string {
	switch {
	case share.GreaterThan(dominantShare):
		return VerdictDominant
	case share.LessThan(balancedShare):
		return VerdictBalanced
	default:
		return VerdictModerate
	}
}

// Generate returns the insight line for records.
func Generate(records []model.Record) string {
	s, ok := Summarize(records)
	if !ok {
		return NoData
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("Category '%s' leads with %.0f, contributing %.1f%% of total %.0f. Average category value is %.0f. %s",
		s.TopCategory,
		s.TopValue.InexactFloat64(),
		s.Share.InexactFloat64(),
		s.Total.InexactFloat64(),
		s.Mean.InexactFloat64(),
		Verdict(s.Share),
	)
}
