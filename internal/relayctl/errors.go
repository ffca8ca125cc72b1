package relayctl

import "errors"

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrUnknownCommand = errors.New("unknown command")
	ErrServer         = errors.New("server error")
	ErrBadResponse    = errors.New("unexpected response")
)
