package upstream

import "errors"

var (
	ErrRequest          = errors.New("upstream request failed")
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrDecode           = errors.New("decode upstream payload")
	ErrBreakerOpen      = errors.New("upstream circuit breaker open")
)
