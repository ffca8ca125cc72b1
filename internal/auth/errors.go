package auth

import "errors"

var (
	ErrEmptySecret  = errors.New("auth secret must not be empty")
	ErrSignToken    = errors.New("failed to sign token")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing bearer token")
)
