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

// Package ai provides the text encoder abstraction used to embed job sections.
//
// The package defines the Embedder interface, the EmbeddingProvider that owns
// an embedder's resources, and the ModelInfo recorded alongside every stored
// vector. Concrete encoders live in sub-packages:
//
//   - ai/openai: OpenAI-compatible embedding endpoints (TEI, Ollama, vLLM)
//   - ai/hashing: local feature-hashing encoder with no network dependency
//   - ai/mock: test doubles
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inspect call counts and inject behavior.
//
//	cfg := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:8080"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"Go developer"})
package ai
