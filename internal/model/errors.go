package model

import "errors"

var (
	ErrInvalidSpec               = errors.New("invalid parameter spec")
	ErrCacheUnavailable          = errors.New("cache unavailable")
	ErrCalculatorUnreachable     = errors.New("calculator unreachable")
	ErrCalculatorExecutionFailed = errors.New("calculator execution failed")
	ErrAllSourcesExhausted       = errors.New("all sources exhausted")
)
