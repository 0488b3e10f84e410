// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/ingestion"
	"github.com/poiesic/jobvec/normalize"
	"github.com/poiesic/jobvec/storage"
)

// State is the reconciler's position in its polling cycle.
type State int32

const (
	// StateIdle means no store connection has been established.
	StateIdle State = iota
	StateScanning
	StateProcessing
	// StateWaiting means connected and sleeping between scans.
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateWaiting:
		return "waiting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a snapshot of the reconciler's counters.
type Stats struct {
	Scans      uint64
	Processed  uint64
	Failed     uint64
	LastError  string
	LastScanAt time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "reconciler")
		return nil
	}
}

// Reconciler repeatedly finds under-embedded documents and completes them.
// Run must not be called concurrently with itself or RunOnce.
type Reconciler struct {
	repo     storage.JobRepository
	pipeline *ingestion.Pipeline
	config   *Config
	limiter  *rate.Limiter
	logger   *slog.Logger

	// sleep is swapped out by tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error

	state  atomic.Int32
	cursor core.ID

	mu    sync.Mutex
	stats Stats
}

// NewReconciler creates a reconciler that enriches documents through pipeline
// and writes them back to the pipeline's repository.
func NewReconciler(pipeline *ingestion.Pipeline, config *Config, opts ...Option) (*Reconciler, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Reconciler{
		repo:     pipeline.Repository(),
		pipeline: pipeline,
		config:   config,
		logger:   slog.Default().With("component", "reconciler"),
		sleep:    sleep,
	}
	if config.MaxRate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.MaxRate), 1)
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// State returns the current state.
func (r *Reconciler) State() State {
	return State(r.state.Load())
}

func (r *Reconciler) setState(s State) {
	r.state.Store(int32(s))
}

// Stats returns a snapshot of the counters.
func (r *Reconciler) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run polls until ctx is cancelled. Cancellation is the normal way to stop
// and is not reported as an error.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("reconciler started",
		"batch_size", r.config.BatchSize,
		"max_rate", r.config.MaxRate)
	defer r.setState(StateIdle)

	connected := false
	for {
		if !connected {
			r.setState(StateIdle)
			if err := r.repo.Ping(ctx); err != nil {
				if ctx.Err() != nil {
					return r.stopped()
				}
				r.logger.Warn("store unavailable, waiting", "err", err, "retry_in", r.config.ConnectInterval)
				if r.sleep(ctx, r.config.ConnectInterval) != nil {
					return r.stopped()
				}
				continue
			}
			connected = true
		}

		processed, err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return r.stopped()
		}

		wait := r.config.BusyInterval
		switch {
		case err != nil:
			r.logger.Error("scan failed", "err", err, "retry_in", r.config.RecoveryInterval)
			wait = r.config.RecoveryInterval
			if errors.Is(err, core.ErrConnectivity) {
				connected = false
			}
		case processed == 0:
			wait = r.config.IdleInterval
		}

		r.setState(StateWaiting)
		if r.sleep(ctx, wait) != nil {
			return r.stopped()
		}
	}
}

func (r *Reconciler) stopped() error {
	r.logger.Info("reconciler stopped")
	return nil
}

// RunOnce performs a single scan and processes what it finds. It returns the
// number of documents successfully enriched. Per-document failures are
// logged and counted but do not end the pass; the returned error is only set
// for scan-level failures and cancellation.
//
// Scans resume after the last document seen so that documents which keep
// failing do not hide the rest of the backlog. A short page wraps the
// cursor back to the start.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	r.setState(StateScanning)
	defer r.setState(StateWaiting)

	r.mu.Lock()
	r.stats.Scans++
	r.stats.LastScanAt = time.Now()
	r.mu.Unlock()

	processed, seen := 0, 0
	for doc, err := range r.repo.FindUnderEmbeddedAfter(ctx, r.cursor, r.config.BatchSize) {
		if err != nil {
			if errors.Is(err, storage.ErrSerializationFailed) {
				seen++
				if doc != nil {
					r.cursor = doc.ID
				}
				r.recordFailure(err)
				r.logger.Warn("skipping unreadable document", "id", r.cursor, "err", err)
				continue
			}
			r.recordError(err)
			return processed, err
		}

		seen++
		r.cursor = doc.ID
		r.setState(StateProcessing)

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return processed, err
			}
		}

		if err := r.processDocument(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			r.recordFailure(err)
			r.logger.Warn("failed to reconcile document", "id", doc.ID, "job_id", doc.JobID(), "err", err)
			continue
		}

		processed++
		r.mu.Lock()
		r.stats.Processed++
		r.mu.Unlock()
	}

	if seen < r.config.BatchSize {
		r.cursor = 0
	}
	if processed > 0 {
		r.logger.Info("reconciled batch", "processed", processed, "seen", seen)
	}
	return processed, nil
}

// processDocument re-derives and rewrites the enrichment fields of one document.
func (r *Reconciler) processDocument(ctx context.Context, doc *core.StoredDocument) error {
	jobID := doc.JobID()
	if jobID == "" {
		jobID = doc.ID.String()
	}

	canonical := normalize.Normalize(core.RawRecord(doc.Fields), jobID)

	var job *core.StoredJob
	err := RetryWithBackoff(ctx, func() error {
		var err error
		job, err = r.pipeline.Enrich(ctx, canonical)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return err
	}

	fields, err := job.EnrichmentFields()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrEncodingFailure, err)
	}
	if _, err := r.repo.PatchDocument(ctx, doc.ID, fields); err != nil {
		return err
	}

	r.logger.Debug("reconciled document",
		"id", doc.ID,
		"job_id", canonical.JobID,
		"ready", job.Metadata.EmbeddingReady,
		"sections", len(job.Metadata.SectionsEmbedded))
	return nil
}

func (r *Reconciler) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Failed++
	r.stats.LastError = err.Error()
}

func (r *Reconciler) recordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.LastError = err.Error()
}
