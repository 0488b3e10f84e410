package badger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
//
// Besides the primary document key it maintains two indexes in the same
// transaction as every write: job_id to ID, and a pending marker for each
// document whose metadata.embedding_ready is not exactly true.
type JobRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (*JobRepository, error) {
	idSeq, err := backend.GetSequence(jobDocIDSeq)
	if err != nil {
		return nil, connectivityError(err)
	}

	return &JobRepository{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default().With("component", "job-repository"),
	}, nil
}

// Close releases the ID sequence.
func (r *JobRepository) Close() error {
	return r.idSeq.Release()
}

// Ping delegates to the backend.
func (r *JobRepository) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

// UpsertJob writes job keyed by its JobID.
func (r *JobRepository) UpsertJob(ctx context.Context, job *core.StoredJob) (*storage.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateStoredJob(job); err != nil {
		return nil, err
	}
	fields, err := job.Document()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	var result storage.UpsertResult
	err = r.backend.Update(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		existing, err := r.readByJobID(tx, job.JobID)
		if err != nil {
			return err
		}

		if existing != nil {
			updated := cloneDocument(existing)
			maps.Copy(updated.Fields, fields)
			updated.UpdatedAt = now
			result = storage.UpsertResult{ID: existing.ID, Inserted: false}
			return r.writeDocument(tx, existing, updated)
		}

		id, err := r.nextID()
		if err != nil {
			return err
		}
		doc := &core.StoredDocument{
			ID:         id,
			Fields:     maps.Clone(fields),
			InsertedAt: now,
			UpdatedAt:  now,
		}
		result = storage.UpsertResult{ID: id, Inserted: true}
		return r.writeDocument(tx, nil, doc)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("upserted job", "job_id", job.JobID, "id", result.ID, "inserted", result.Inserted)
	return &result, nil
}

// PatchDocument merges fields into the document with the given ID.
func (r *JobRepository) PatchDocument(ctx context.Context, id core.ID, fields core.Document) (*core.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.StoredDocument
	err := r.backend.Update(func(tx *badger.Txn) error {
		existing, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}

		updated := cloneDocument(existing)
		maps.Copy(updated.Fields, fields)
		updated.UpdatedAt = time.Now().UTC()
		if err := r.writeDocument(tx, existing, updated); err != nil {
			return err
		}
		result = updated
		return nil
	})
	return result, err
}

// InsertDocument stores doc as a new document.
func (r *JobRepository) InsertDocument(ctx context.Context, doc core.Document) (core.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id core.ID
	err := r.backend.Update(func(tx *badger.Txn) error {
		var err error
		id, err = r.nextID()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		fields := maps.Clone(doc)
		if fields == nil {
			fields = core.Document{}
		}
		return r.writeDocument(tx, nil, &core.StoredDocument{
			ID:         id,
			Fields:     fields,
			InsertedAt: now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetDocument retrieves a document by ID.
func (r *JobRepository) GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.StoredDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetJob retrieves the document indexed under jobID.
func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*core.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.StoredDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readByJobID(tx, jobID)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindUnderEmbedded yields up to limit under-embedded documents in ID order.
func (r *JobRepository) FindUnderEmbedded(ctx context.Context, limit int) iter.Seq2[*core.StoredDocument, error] {
	return r.FindUnderEmbeddedAfter(ctx, 0, limit)
}

// FindUnderEmbeddedAfter yields up to limit under-embedded documents with an
// ID greater than after, in ID order. Candidate IDs are collected from the
// pending index up front; each document is then read in its own transaction
// and skipped if it became ready meanwhile.
func (r *JobRepository) FindUnderEmbeddedAfter(ctx context.Context, after core.ID, limit int) iter.Seq2[*core.StoredDocument, error] {
	return func(yield func(*core.StoredDocument, error) bool) {
		if limit <= 0 {
			yield(nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit))
			return
		}

		ids, err := r.pendingIDs(after, limit)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			var doc *core.StoredDocument
			err := r.backend.WithTx(func(tx *badger.Txn) error {
				var err error
				doc, err = readDocument(tx, id)
				return err
			}, false)
			if err != nil {
				if !yield(&core.StoredDocument{ID: id}, err) {
					return
				}
				continue
			}
			if doc == nil || core.IsEmbeddingReady(doc.Fields) {
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// CountTotal returns the number of stored documents.
func (r *JobRepository) CountTotal(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		total = countPrefix(tx, jobDocPrefix)
		return nil
	}, false)
	return total, err
}

// CountReady returns the number of documents whose embedding_ready is true.
func (r *JobRepository) CountReady(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var ready int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ready = countPrefix(tx, jobDocPrefix) - countPrefix(tx, jobPendingPrefix)
		return nil
	}, false)
	return ready, err
}

func (r *JobRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

func (r *JobRepository) pendingIDs(after core.ID, limit int) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobPendingPrefix)
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(makeJobPendingKey(after + 1)); it.Valid() && len(ids) < limit; it.Next() {
			if id, ok := idFromFixedKey(jobPendingPrefix, it.Item().Key()); ok && id > after {
				ids = append(ids, id)
			}
		}
		return nil
	}, false)
	return ids, err
}

// writeDocument stores doc and brings both indexes in line with it.
// old is the previous version of the document, or nil for an insert.
func (r *JobRepository) writeDocument(tx *badger.Txn, old, doc *core.StoredDocument) error {
	value, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if err := tx.Set(makeJobDocKey(doc.ID), value); err != nil {
		return err
	}

	oldJobID := old.JobID()
	newJobID := doc.JobID()
	if oldJobID != "" && oldJobID != newJobID {
		if err := unindexJobID(tx, oldJobID, doc.ID); err != nil {
			return err
		}
	}
	if newJobID != "" {
		if err := tx.Set(makeJobIDIndexKey(newJobID), storage.MarshalID(doc.ID)); err != nil {
			return err
		}
	}

	pendingKey := makeJobPendingKey(doc.ID)
	if core.IsEmbeddingReady(doc.Fields) {
		return tx.Delete(pendingKey)
	}
	return tx.Set(pendingKey, []byte{})
}

// readByJobID resolves the job_id index. Returns nil, nil when absent.
func (r *JobRepository) readByJobID(tx *badger.Txn, jobID string) (*core.StoredDocument, error) {
	id, found, err := lookupJobID(tx, jobID)
	if err != nil || !found {
		return nil, err
	}
	doc, err := readDocument(tx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		r.logger.Warn("job_id index points at missing document", "job_id", jobID, "id", id)
	}
	return doc, nil
}

func lookupJobID(tx *badger.Txn, jobID string) (core.ID, bool, error) {
	item, err := tx.Get(makeJobIDIndexKey(jobID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err == nil, err
}

// unindexJobID removes the job_id index entry if it still points at id.
func unindexJobID(tx *badger.Txn, jobID string, id core.ID) error {
	current, found, err := lookupJobID(tx, jobID)
	if err != nil || !found || current != id {
		return err
	}
	return tx.Delete(makeJobIDIndexKey(jobID))
}

// readDocument reads a document by ID. Returns nil, nil when absent.
func readDocument(tx *badger.Txn, id core.ID) (*core.StoredDocument, error) {
	item, err := tx.Get(makeJobDocKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.StoredDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

func countPrefix(tx *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := tx.NewIterator(opts)
	defer it.Close()

	count := 0
	for it.Rewind(); it.Valid(); it.Next() {
		count++
	}
	return count
}

func cloneDocument(doc *core.StoredDocument) *core.StoredDocument {
	clone := *doc
	clone.Fields = maps.Clone(doc.Fields)
	if clone.Fields == nil {
		clone.Fields = core.Document{}
	}
	return &clone
}
