package dashboard

import (
	"errors"
)

// Sentinel kinds for a load cycle that did not render data.
var (
	ErrEmptyResult  = errors.New("empty result")
	ErrFetchFailure = errors.New("fetch failure")
)

// Texts shown by the empty state.
const (
	MessageEmptyResult  = "No data available or API issue."
	MessageFetchFailure = "Failed to load data. Check API or permissions."
	TitleNoData         = "No Data"
)
