// Package apperr defines the error taxonomy shared by every notebox layer.
package apperr

import "errors"

var (
	// ErrValidation marks input rejected before any write (blank title, bad page size, bad date).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFormat marks an image path whose extension is not whitelisted. Non-fatal.
	ErrInvalidFormat = errors.New("invalid image format")
	ErrNotFound      = errors.New("not found")
	// ErrIO marks an image file that could not be read or written.
	ErrIO = errors.New("io error")
	// ErrStoreUnavailable marks a connection-level failure. Never retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNoResults is reported by the pager for an empty result set.
	ErrNoResults = errors.New("no notes found")
)
