package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/jobvec/ai"
	"github.com/poiesic/jobvec/core"
)

// DefaultPoolSize is the number of encoder workers. Encoders are CPU or
// network bound, so one in-flight batch at a time is the default.
const DefaultPoolSize = 1

// SectionEmbedder computes the EmbeddingBundle for a job.
// It is safe for concurrent use; calls are serialized through its worker pool.
type SectionEmbedder struct {
	encoder ai.Embedder
	model   ai.ModelInfo
	pool    *ants.Pool
	logger  *slog.Logger
}

// Option configures a SectionEmbedder.
type Option func(*SectionEmbedder) error

// WithPoolSize sets the number of workers running encoder calls.
func WithPoolSize(size int) Option {
	return func(se *SectionEmbedder) error {
		if size < 1 {
			size = 1
		}
		if se.pool != nil {
			se.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		se.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(se *SectionEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		se.logger = logger.With("component", "section-embedder")
		return nil
	}
}

// NewSectionEmbedder creates an embedder around encoder. model describes the
// encoder; when model.Dimension is positive every vector must have that length.
func NewSectionEmbedder(encoder ai.Embedder, model ai.ModelInfo, opts ...Option) (*SectionEmbedder, error) {
	if encoder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	se := &SectionEmbedder{
		encoder: encoder,
		model:   model,
		pool:    pool,
		logger:  slog.Default().With("component", "section-embedder"),
	}

	for _, opt := range opts {
		if err := opt(se); err != nil {
			se.Release()
			return nil, err
		}
	}
	return se, nil
}

// Model describes the encoder behind this embedder.
func (se *SectionEmbedder) Model() ai.ModelInfo {
	return se.model
}

// Embed computes every section's text and vector. Sections without text get
// no vector and no encoder call. Encoder errors and vectors of the wrong
// length are reported as core.ErrEncodingFailure.
func (se *SectionEmbedder) Embed(ctx context.Context, job core.JobData) (*core.EmbeddingBundle, error) {
	bundle := &core.EmbeddingBundle{}

	var names []core.SectionName
	var texts []string
	for _, name := range core.Sections {
		text := SectionText(job, name)
		bundle.Section(name).Text = text
		if text != nil {
			names = append(names, name)
			texts = append(texts, *text)
		}
	}

	if len(texts) == 0 {
		return bundle, nil
	}

	vectors, err := se.encode(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, received %d", core.ErrEncodingFailure, len(texts), len(vectors))
	}

	for i, name := range names {
		v := vectors[i]
		if se.model.Dimension > 0 && len(v) != se.model.Dimension {
			return nil, fmt.Errorf("%w: %w: section %s has %d values, want %d",
				core.ErrEncodingFailure, ErrDimensionMismatch, name, len(v), se.model.Dimension)
		}
		if IsZero(v) {
			return nil, fmt.Errorf("%w: %w: section %s", core.ErrEncodingFailure, ErrZeroVector, name)
		}
		bundle.Section(name).Vector = NormalizeVector(v)
	}

	se.logger.Debug("embedded job sections", "sections", len(names))
	return bundle, nil
}

type encodeResult struct {
	vectors [][]float32
	err     error
}

// encode runs one batched encoder call on the worker pool.
func (se *SectionEmbedder) encode(ctx context.Context, texts []string) ([][]float32, error) {
	done := make(chan encodeResult, 1)
	err := se.pool.Submit(func() {
		vectors, err := se.encoder.EmbedTexts(ctx, texts)
		done <- encodeResult{vectors: vectors, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEncodingFailure, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			se.logger.Error("encoder call failed", "texts", len(texts), "err", res.err)
			return nil, fmt.Errorf("%w: %w", core.ErrEncodingFailure, res.err)
		}
		return res.vectors, nil
	}
}

// Release shuts down the worker pool. The embedder must not be used afterwards.
func (se *SectionEmbedder) Release() {
	if se.pool != nil {
		se.pool.Release()
	}
}

// SectionText returns the encoder input for a section, or nil when the
// section has no content. Required skills are joined with ", ", the other
// list sections with a single space.
func SectionText(job core.JobData, name core.SectionName) *string {
	var text string
	switch name {
	case core.SectionTitle:
		return nonEmpty(job.Title)
	case core.SectionDescription:
		return nonEmpty(job.Sections.Description)
	case core.SectionRequiredSkills:
		text = strings.Join(job.Sections.RequiredSkills, ", ")
	case core.SectionResponsibilities:
		text = strings.Join(job.Sections.Responsibilities, " ")
	case core.SectionQualifications:
		text = strings.Join(job.Sections.Qualifications, " ")
	default:
		return nil
	}
	return nonEmpty(&text)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
