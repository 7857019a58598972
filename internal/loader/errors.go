package loader

import "errors"

var (
	ErrLoad        = errors.New("recipe load failed")
	ErrInvalidStep = errors.New("invalid step")
	ErrCycle       = errors.New("include cycle")
	ErrNotFound    = errors.New("recipe not found")
)
