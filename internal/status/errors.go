package status

import "errors"

var (
	ErrDisplayInit   = errors.New("failed to initialize display")
	ErrDisplayUpdate = errors.New("failed to update display")
)
