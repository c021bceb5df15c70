package model

import "errors"

// Error kinds. Producers wrap them with context, callers test with errors.Is.
var (
	ErrNetwork  = errors.New("network error")
	ErrAuth     = errors.New("auth error")
	ErrParse    = errors.New("parse error")
	ErrCache    = errors.New("cache error")
	ErrNotFound = errors.New("not found")
)
