package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use and must return
// the same vector for the same text on every call.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelInfo describes the active encoder. It is recorded in each
// document's metadata so readers know which vector space they are in.
type ModelInfo struct {
	// Name is the model identifier, e.g. "BAAI/bge-small-en-v1.5".
	Name string

	// Dimension is the fixed length of every vector the model produces.
	Dimension int
}

// EmbeddingProvider owns an Embedder and the resources behind it.
type EmbeddingProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Model describes the encoder behind Embedder.
	Model() ModelInfo

	// Close releases resources held by the provider.
	// After Close is called, the provider and its Embedder should not be used.
	Close() error
}
