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
// Package reconcile keeps the job store fully embedded.
//
// A Reconciler polls the store for documents whose metadata.embedding_ready
// flag is not exactly true, re-runs them through normalization and embedding,
// and patches the enrichment fields back by internal ID. It backs off when the
// store is quiet or failing and stops when its context is cancelled.
package reconcile
