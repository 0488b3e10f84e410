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
package jobvec

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/jobvec/ai"
	"github.com/poiesic/jobvec/ai/hashing"
	"github.com/poiesic/jobvec/ai/openai"
	"github.com/poiesic/jobvec/embed"
	"github.com/poiesic/jobvec/ingestion"
	"github.com/poiesic/jobvec/reconcile"
	"github.com/poiesic/jobvec/server"
	"github.com/poiesic/jobvec/storage"
	"github.com/poiesic/jobvec/storage/badger"
)

// Database wires the job store, the embedding provider and the section
// embedder together and hands out the components built on them.
type Database struct {
	backend  *badger.Backend
	jobRepo  *badger.JobRepository
	provider ai.EmbeddingProvider
	embedder *embed.SectionEmbedder
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.EmbeddingProvider
	inMemory bool
	poolSize int
	logger   *slog.Logger
}

// WithAIConfig selects and configures the encoder.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithEmbeddingProvider uses provider instead of building one from the AI
// config. The Database takes ownership and closes it.
func WithEmbeddingProvider(provider ai.EmbeddingProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the store in memory. The file path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithEncoderPoolSize sets how many encoder calls may run at once.
func WithEncoderPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.poolSize = size
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewEmbeddingProvider builds the provider named by config.Encoder.
func NewEmbeddingProvider(config *ai.Config) (ai.EmbeddingProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Encoder {
	case ai.EncoderHashing:
		return hashing.NewProvider(config)
	default:
		return openai.NewProvider(config)
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		poolSize: embed.DefaultPoolSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	jobRepo, err := badger.NewJobRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = NewEmbeddingProvider(options.aiConfig)
		if err != nil {
			jobRepo.Close()
			backend.Close()
			return nil, fmt.Errorf("invalid AI configuration: %w", err)
		}
	}

	embedder, err := embed.NewSectionEmbedder(provider.Embedder(), provider.Model(),
		embed.WithPoolSize(options.poolSize),
		embed.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		jobRepo.Close()
		backend.Close()
		return nil, err
	}

	options.logger.Debug("database opened",
		"path", filePath,
		"in_memory", options.inMemory,
		"model", provider.Model().Name,
		"dimension", provider.Model().Dimension)

	return &Database{
		backend:  backend,
		jobRepo:  jobRepo,
		provider: provider,
		embedder: embedder,
		logger:   options.logger,
	}, nil
}

func (db *Database) Close() error {
	db.embedder.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing embedding provider", "err", err)
	}

	if err := db.jobRepo.Close(); err != nil {
		db.logger.Error("error closing job repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) JobRepository() storage.JobRepository {
	return db.jobRepo
}

// Model describes the active encoder.
func (db *Database) Model() ai.ModelInfo {
	return db.provider.Model()
}

func (db *Database) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewPipeline(db.jobRepo, db.embedder, opts...)
}

func (db *Database) NewLoader(opts ...ingestion.LoaderOption) (*ingestion.Loader, error) {
	pipeline, err := db.NewPipeline()
	if err != nil {
		return nil, err
	}
	opts = append([]ingestion.LoaderOption{ingestion.WithLoaderLogger(db.logger)}, opts...)
	return ingestion.NewLoader(pipeline, opts...), nil
}

func (db *Database) NewReconciler(config *reconcile.Config, opts ...reconcile.Option) (*reconcile.Reconciler, error) {
	pipeline, err := db.NewPipeline()
	if err != nil {
		return nil, err
	}
	opts = append([]reconcile.Option{reconcile.WithLogger(db.logger)}, opts...)
	return reconcile.NewReconciler(pipeline, config, opts...)
}

func (db *Database) NewServer(opts ...server.Option) (*server.Server, error) {
	pipeline, err := db.NewPipeline()
	if err != nil {
		return nil, err
	}
	opts = append([]server.Option{server.WithLogger(db.logger)}, opts...)
	return server.New(pipeline, opts...)
}
