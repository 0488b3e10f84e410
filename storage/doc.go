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

// Package storage defines the document store contract for enriched job postings.
//
// A JobRepository persists JSON-shaped documents keyed by a store-internal
// core.ID and indexed by their job_id field. Ingestion writes through
// UpsertJob, which replaces the fields this service owns and keeps every
// other field of an existing document. The reconciler reads under-embedded
// documents through FindUnderEmbedded and writes back with PatchDocument.
//
// Documents are persisted as a small binary envelope (identity and
// timestamps encoded with mus-go) around a JSON body, so fields written by
// other tools survive untouched.
//
//	backend, err := badger.OpenBackend("/var/lib/jobvec", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewJobRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Errors
//
// Operations against a closed or failing store return errors wrapping
// core.ErrConnectivity. Missing documents return ErrNotFound.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Concurrent upserts of the
// same job_id resolve to the last write.
package storage
