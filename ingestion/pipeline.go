package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/embed"
	"github.com/poiesic/jobvec/normalize"
	"github.com/poiesic/jobvec/storage"
)

// Pipeline turns raw records into stored, embedded jobs.
// It is safe for concurrent use.
type Pipeline struct {
	repository storage.JobRepository
	embedder   *embed.SectionEmbedder
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.JobRepository, embedder *embed.SectionEmbedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		logger:     slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Repository returns the store the pipeline writes to.
func (p *Pipeline) Repository() storage.JobRepository {
	return p.repository
}

// Enrich embeds and classifies a canonical job. It does not touch the store.
func (p *Pipeline) Enrich(ctx context.Context, job core.CanonicalJob) (*core.StoredJob, error) {
	bundle, err := p.embedder.Embed(ctx, job.Job)
	if err != nil {
		return nil, err
	}

	return &core.StoredJob{
		JobID:      job.JobID,
		CleanedJob: job.Job,
		Embeddings: *bundle,
		Metadata:   embed.Classify(bundle, p.embedder.Model()),
	}, nil
}

// Prepare normalizes raw with id as the fallback identifier, rejects records
// without a title and enriches the rest. It does not touch the store.
func (p *Pipeline) Prepare(ctx context.Context, raw core.RawRecord, id string) (*core.StoredJob, error) {
	canonical := normalize.Normalize(raw, id)
	if err := core.ValidateJobData(&canonical.Job); err != nil {
		return nil, err
	}
	return p.Enrich(ctx, canonical)
}

// Process runs raw through the full pipeline and upserts the result keyed by
// its resolved job id. Returns an error wrapping core.ErrMissingTitle when
// the normalized title is empty.
func (p *Pipeline) Process(ctx context.Context, raw core.RawRecord, id string) (*core.StoredJob, error) {
	job, err := p.Prepare(ctx, raw, id)
	if err != nil {
		return nil, err
	}

	result, err := p.repository.UpsertJob(ctx, job)
	if err != nil {
		p.logger.Error("failed to store job", "job_id", job.JobID, "err", err)
		return nil, err
	}

	p.logger.Info("processed job",
		"job_id", job.JobID,
		"inserted", result.Inserted,
		"sections", len(job.Metadata.SectionsEmbedded))
	return job, nil
}
