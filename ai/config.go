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

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Encoder kinds selectable through Config.Encoder.
const (
	// EncoderOpenAI talks to an OpenAI-compatible embeddings endpoint.
	EncoderOpenAI = "openai"

	// EncoderHashing is a local, dependency-free feature-hashing encoder.
	EncoderHashing = "hashing"
)

const (
	DefaultEmbeddingHost  = "http://localhost:11434/v1"
	DefaultEmbeddingModel = "BAAI/bge-small-en-v1.5"
	DefaultDimension      = 384
)

// Config holds configuration for the embedding provider.
type Config struct {
	// Encoder selects the implementation: EncoderOpenAI or EncoderHashing.
	Encoder string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// Token is the API token. Local servers accept any value.
	Token string

	// Dimension is the vector length the model produces.
	// Vectors of any other length are rejected.
	Dimension int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEncoder sets the encoder kind.
func WithEncoder(kind string) ConfigOption {
	return func(c *Config) {
		c.Encoder = kind
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithDimension sets the expected vector dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// DefaultConfig returns a Config for bge-small served by a local
// OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Encoder:        EncoderOpenAI,
		EmbeddingHost:  DefaultEmbeddingHost,
		EmbeddingModel: DefaultEmbeddingModel,
		Token:          "none",
		Dimension:      DefaultDimension,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:8080"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	    WithDimension(1536),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form. It lowercases the
// encoder kind and adds the /v1 suffix most OpenAI-compatible servers
// (Ollama, LocalAI, vLLM, TEI) expect.
func (c *Config) Normalize() {
	c.Encoder = strings.ToLower(strings.TrimSpace(c.Encoder))
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Encoder {
	case EncoderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	case EncoderHashing:
	default:
		return fmt.Errorf("ai config: unknown encoder %q", c.Encoder)
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be greater than 0")
	}
	return nil
}

// Model returns the ModelInfo described by the configuration.
func (c *Config) Model() ModelInfo {
	return ModelInfo{Name: c.EmbeddingModel, Dimension: c.Dimension}
}
