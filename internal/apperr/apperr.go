// Package apperr defines the error kinds the service distinguishes at
// its boundaries. Repositories and services wrap these sentinels with
// fmt.Errorf("...: %w", ...); handlers map them to HTTP statuses with
// errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound means a referenced zone, image, alert or configuration
	// does not exist. Surfaced to the caller as 404.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input is malformed or out of range, e.g. a
	// non-positive sensor spacing. Surfaced as 400.
	ErrValidation = errors.New("validation failed")

	// ErrStorage means image or record persistence failed. The pipeline
	// rolls back and surfaces 500. Not retried automatically.
	ErrStorage = errors.New("storage failure")

	// ErrInference means the classifier is unavailable or returned
	// malformed output. The pipeline rolls back and surfaces 502.
	ErrInference = errors.New("inference failure")
)
