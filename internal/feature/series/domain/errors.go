// Package domain defines domain-level errors for the series feature.
package domain

import "errors"

// Domain errors for upload and query operations.
// Callers wrap them with context and upper layers match with errors.Is.
var (
	// ErrInvalidInput indicates an unusable upload: missing required columns,
	// a payload that is not tabular text, or no usable rows.
	// Transport reports it as a client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrComputation indicates that indicator derivation produced an
	// inconsistent result. The whole upload is rejected.
	ErrComputation = errors.New("indicator computation failed")

	// ErrStorage indicates a persistence backend failure.
	// The previously stored collection is left intact.
	ErrStorage = errors.New("storage failure")
)
