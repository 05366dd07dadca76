// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMissingValue is returned when a record has no latest or previous value.
var ErrMissingValue = errors.New("missing value")

// Record is one dashboard row as delivered by the upstream endpoint.
type Record struct {
	Category string              `json:"category"`
	Latest   decimal.Decimal     `json:"latest"`
	Previous decimal.Decimal     `json:"previous"`
	Growth   decimal.NullDecimal `json:"growth"` // absent or null -> Valid == false
	Date     string              `json:"date"`
}

// UnmarshalJSON decodes a record and rejects absent or null latest and previous values.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		Category string              `json:"category"`
		Latest   decimal.NullDecimal `json:"latest"`
		Previous decimal.NullDecimal `json:"previous"`
		Growth   decimal.NullDecimal `json:"growth"`
		Date     string              `json:"date"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if !raw.Latest.Valid {
		return fmt.Errorf("%w: category %q: latest", ErrMissingValue, raw.Category)
	}
	if !raw.Previous.Valid {
		return fmt.Errorf("%w: category %q: previous", ErrMissingValue, raw.Category)
	}

	*r = Record{
		Category: raw.Category,
		Latest:   raw.Latest.Decimal,
		Previous: raw.Previous.Decimal,
		Growth:   raw.Growth,
		Date:     raw.Date,
	}
	return nil
}

// Payload is the upstream response body. Data is nil when the field is absent.
type Payload struct {
	Data []Record `json:"data"`
}

// Empty reports whether the payload carries no usable records.
func (p *Payload) Empty() bool {
	return p == nil || len(p.Data) == 0
}
