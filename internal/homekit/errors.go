package homekit

import "errors"

var (
	ErrInvalidPin = errors.New("invalid homekit setup code")
	ErrNoStoreDir = errors.New("homekit store directory not set")
	ErrServer     = errors.New("homekit server failed")
)
