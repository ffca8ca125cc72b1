package rpc

import "errors"

// Registration errors
var (
	ErrEmptyMethod     = errors.New("method name is required")
	ErrNilHandler      = errors.New("handler is nil")
	ErrDuplicateMethod = errors.New("method already registered")
)

// Dispatch errors
var (
	ErrMethodNotFound = errors.New("method not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrParse          = errors.New("parse error")
)
