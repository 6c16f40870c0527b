package domain

import "errors"

// common domain errors that cross component boundaries.
var (
	ErrNotFound = errors.New("entity not found")

	// ErrMalformedEvent means no field of a raw record resolved to a positive
	// integer timestamp. the record is skipped, never aborts a batch.
	ErrMalformedEvent = errors.New("malformed event: no usable timestamp")

	// ErrFutureTimestamp means the resolved timestamp is after normalization
	// time. skipped so it can never shift period classification.
	ErrFutureTimestamp = errors.New("event timestamp is in the future")

	ErrInvalidScheme = errors.New("invalid rotation scheme")
)
