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

package core

import "fmt"

// ValidateJobData checks that normalized job data is usable for ingestion.
//
// Validation rules:
//   - Title must be present
//
// NOT validated (every other field may legitimately be missing):
//   - Company, Location, EmploymentType, ExperienceRequired
//   - Sections (may all be empty)
func ValidateJobData(job *JobData) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrMalformedInput)
	}
	if job.Title == nil || *job.Title == "" {
		return fmt.Errorf("%w: %w", ErrMalformedInput, ErrMissingTitle)
	}
	return nil
}

// ValidateMetadata checks the readiness invariant.
func ValidateMetadata(meta *Metadata) error {
	if meta == nil {
		return fmt.Errorf("%w: metadata is nil", ErrInvalidStoredJob)
	}
	if meta.EmbeddingReady != (len(meta.SectionsEmbedded) > 0) {
		return fmt.Errorf("%w: %w", ErrInvalidStoredJob, ErrReadinessMismatch)
	}
	return nil
}

// ValidateStoredJob validates a StoredJob before it is written.
//
// Validation rules:
//   - JobID must not be empty
//   - Metadata must satisfy the readiness invariant
func ValidateStoredJob(job *StoredJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidStoredJob)
	}
	if job.JobID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStoredJob, ErrEmptyJobID)
	}
	return ValidateMetadata(&job.Metadata)
}
