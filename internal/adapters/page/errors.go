package page

import "errors"

var (
	ErrChartConfig = errors.New("invalid chart configuration")
	ErrRender      = errors.New("render page")
)
