package upload

import "errors"

var (
	ErrNegotiation  = errors.New("failed to negotiate upload targets")
	ErrTransfer     = errors.New("failed to transfer file")
	ErrConfirmation = errors.New("failed to confirm")
)
