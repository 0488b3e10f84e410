package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a job repository is not provided.
	ErrRepositoryRequired = errors.New("job repository required")

	// ErrEmbedderRequired is returned when a section embedder is not provided.
	ErrEmbedderRequired = errors.New("section embedder required")

	// ErrUnknownFormat is returned for an input format the loader cannot read.
	ErrUnknownFormat = errors.New("unknown input format")

	// ErrMalformedRow is returned by a row reader for a single row it could
	// not decode. Reading can continue with the next row.
	ErrMalformedRow = errors.New("malformed input row")
)
