package common

import "errors"

var (
	// ErrorNotFound is returned when a local entity does not exist.
	ErrorNotFound = errors.New("not found")

	// ErrValidation wraps every draft validation failure.
	ErrValidation = errors.New("validation error")

	// ErrTokenExpired is reported by transports when the access token
	// must be renewed before the request can be retried.
	ErrTokenExpired = errors.New("token expired")
)
