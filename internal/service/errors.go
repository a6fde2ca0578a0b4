package service

import "errors"

var (
	// ErrInvalidBatch is returned when an upload contains a malformed sample. Nothing of the batch
	// is stored.
	ErrInvalidBatch = errors.New("invalid point batch")

	// ErrInvalidRequest is returned for malformed labels, suggestions and queries
	ErrInvalidRequest = errors.New("invalid request")
)
