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

// Package embed turns canonical job data into per-section embedding vectors
// and classifies how complete the result is.
//
// A SectionEmbedder derives one text per section (title, required skills,
// responsibilities, qualifications, description), encodes all non-empty
// texts in a single batched call on a dedicated worker pool, and
// L2-normalizes every vector. Classify summarizes a bundle into the
// metadata stored beside it.
//
//	se, err := embed.NewSectionEmbedder(provider.Embedder(), provider.Model())
//	if err != nil {
//	    return err
//	}
//	defer se.Release()
//
//	bundle, err := se.Embed(ctx, job)
//	meta := embed.Classify(bundle, se.Model())
package embed
