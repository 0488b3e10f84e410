package embed

import "errors"

var (
	// ErrEmbedderRequired is returned when no encoder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrZeroVector is returned when the encoder produces a vector with no magnitude.
	ErrZeroVector = errors.New("encoder returned a zero vector")

	// ErrDimensionMismatch is returned when a vector's length differs from the model dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
