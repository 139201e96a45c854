package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input,
	// such as an empty owner id or whitespace-only document text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExhausted indicates an ingest produced zero usable chunks
	// from non-empty input: every chunk failed to embed or persist.
	ErrExhausted = errors.New("no chunks could be stored")

	// ErrDimensionMismatch indicates a stored embedding does not match
	// the configured dimension. Search skips such chunks rather than
	// failing; the sentinel exists for logging and tests.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
