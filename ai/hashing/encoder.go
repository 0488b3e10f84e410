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

// Package hashing provides a local feature-hashing text encoder.
//
// Each lowercased word and adjacent word pair is hashed with 64-bit BLAKE2b
// into one of Dimension buckets with a hash-derived sign, and the resulting
// vector is scaled to unit length. The encoder needs no model files or network
// access, which makes it suitable for offline ingestion and tests where a
// stable vector space matters more than semantic quality.
package hashing

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/jobvec/ai"
)

// ModelName identifies vectors produced by this encoder in stored metadata.
const ModelName = "blake2b-feature-hashing"

const bigramWeight = 0.5

// Encoder implements ai.Embedder with the hashing trick.
// It holds no mutable state and is safe for concurrent use.
type Encoder struct {
	dim int
}

// NewEncoder returns an encoder producing vectors of length dim.
func NewEncoder(dim int) (*Encoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing encoder: dimension must be greater than 0, got %d", dim)
	}
	return &Encoder{dim: dim}, nil
}

// EmbedText encodes a single text.
func (e *Encoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.encode(text), nil
}

// EmbedTexts encodes texts in order.
func (e *Encoder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.encode(text)
	}
	return vectors, nil
}

func (e *Encoder) encode(text string) []float32 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		// Punctuation-only text still gets a stable, non-zero vector
		tokens = []string{strings.ToLower(strings.TrimSpace(text))}
	}

	acc := make([]float64, e.dim)
	for i, tok := range tokens {
		e.add(acc, tok, 1)
		if i > 0 {
			e.add(acc, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	var sumSquares float64
	for _, v := range acc {
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)

	vector := make([]float32, e.dim)
	for i, v := range acc {
		if norm > 0 {
			v /= norm
		}
		vector[i] = float32(v)
	}
	return vector
}

func (e *Encoder) add(acc []float64, feature string, weight float64) {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(feature))
	sum := binary.LittleEndian.Uint64(h.Sum(nil))

	idx := sum % uint64(e.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

// Tokenize lowercases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Provider implements ai.EmbeddingProvider around an Encoder.
type Provider struct {
	encoder *Encoder
	model   ai.ModelInfo
	logger  *slog.Logger
}

// NewProvider creates a hashing provider. Only the configured dimension is
// used; the model name is always ModelName.
func NewProvider(config *ai.Config) (ai.EmbeddingProvider, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("hashing provider: dimension must be greater than 0, got %d", config.Dimension)
	}
	encoder, err := NewEncoder(config.Dimension)
	if err != nil {
		return nil, err
	}
	return &Provider{
		encoder: encoder,
		model:   ai.ModelInfo{Name: ModelName, Dimension: config.Dimension},
		logger:  slog.Default().With("component", "hashing-provider"),
	}, nil
}

// Embedder returns the hashing encoder.
func (p *Provider) Embedder() ai.Embedder {
	return p.encoder
}

// Model reports ModelName and the configured dimension.
func (p *Provider) Model() ai.ModelInfo {
	return p.model
}

// Close is a no-op.
func (p *Provider) Close() error {
	p.logger.Debug("closing hashing provider")
	return nil
}
