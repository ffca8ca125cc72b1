package relay

import "errors"

var (
	ErrInitFailed   = errors.New("failed to initialize relay")
	ErrSetState     = errors.New("failed to set relay state")
	ErrInvalidState = errors.New("invalid relay state")
)
