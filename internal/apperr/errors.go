// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrOutsideRoot     = errors.New("outside docs root")
	ErrInvalidEntry    = errors.New("invalid fix entry")
	ErrInvalidSeverity = errors.New("invalid severity")
)
