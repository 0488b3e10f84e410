package storage

import (
	"context"
	"iter"

	"github.com/poiesic/jobvec/core"
)

// Repository provides operations shared by every store.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Ping reports whether the store is reachable.
	// Returns an error wrapping core.ErrConnectivity when it is not.
	Ping(ctx context.Context) error

	// Close releases resources held by the repository.
	Close() error
}

// UpsertResult reports the outcome of UpsertJob.
type UpsertResult struct {
	// ID is the store-internal identity of the written document.
	ID core.ID

	// Inserted is true when no document with the job_id existed before.
	Inserted bool
}

// JobRepository stores enriched job documents.
type JobRepository interface {
	Repository

	// UpsertJob writes job keyed by its JobID in a single atomic step.
	// job_id, cleaned_job, embeddings, metadata and any Extra keys are
	// overwritten; every other field of an existing document is preserved.
	UpsertJob(ctx context.Context, job *core.StoredJob) (*UpsertResult, error)

	// PatchDocument merges fields into the document with the given ID.
	// Top-level keys in fields replace existing keys; others are kept.
	// Returns ErrNotFound if the document doesn't exist.
	PatchDocument(ctx context.Context, id core.ID, fields core.Document) (*core.StoredDocument, error)

	// InsertDocument stores doc as a new document and indexes its job_id
	// when present. A later document with the same job_id takes over the index.
	InsertDocument(ctx context.Context, doc core.Document) (core.ID, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error)

	// GetJob retrieves the document indexed under jobID.
	// Returns ErrNotFound if no document has that job_id.
	GetJob(ctx context.Context, jobID string) (*core.StoredDocument, error)

	// FindUnderEmbedded yields up to limit documents whose
	// metadata.embedding_ready is not exactly true, in ID order.
	// Documents are loaded lazily as the sequence is consumed.
	FindUnderEmbedded(ctx context.Context, limit int) iter.Seq2[*core.StoredDocument, error]

	// FindUnderEmbeddedAfter is FindUnderEmbedded restricted to documents
	// with an ID greater than after. Callers use it to page past documents
	// that keep failing without starving the rest. A document that cannot be
	// read is yielded as a StoredDocument carrying only its ID, together with
	// the error, so callers can page past it.
	FindUnderEmbeddedAfter(ctx context.Context, after core.ID, limit int) iter.Seq2[*core.StoredDocument, error]

	// CountTotal returns the number of stored documents.
	CountTotal(ctx context.Context) (int, error)

	// CountReady returns the number of documents whose embedding_ready is true.
	CountReady(ctx context.Context) (int, error)
}
