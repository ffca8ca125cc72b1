package relayd

import "errors"

var (
	ErrInvalidListenPort = errors.New("invalid listen port")
	ErrEmptyTopicPrefix  = errors.New("mqtt topic prefix must not be empty")
	ErrOpenPin           = errors.New("failed to open relay pin")
)
