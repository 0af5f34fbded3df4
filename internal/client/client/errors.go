package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnsupported  = errors.New("operation not supported")

	// ErrTargetMismatch is returned when negotiation answers with a number
	// of targets different from the number of files asked for.
	ErrTargetMismatch = errors.New("upload target count mismatch")
)

func targetMismatch(want, got int) error {
	return fmt.Errorf("%w: asked for %d, got %d", ErrTargetMismatch, want, got)
}
