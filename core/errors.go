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

import "errors"

// Domain errors
var (
	// ErrMalformedInput indicates a record that cannot be used after normalization.
	// The normalizer never returns it; ingestion does, to signal "skip this record".
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingTitle indicates the normalized title is empty.
	ErrMissingTitle = errors.New("job title is empty")

	// ErrEncodingFailure indicates the text encoder failed for some input.
	ErrEncodingFailure = errors.New("encoding failure")

	// ErrConnectivity indicates the document store is unreachable.
	ErrConnectivity = errors.New("store unavailable")

	// ErrInvalidStoredJob indicates a StoredJob failed validation before a write.
	ErrInvalidStoredJob = errors.New("invalid stored job")

	// ErrEmptyJobID indicates the job_id field is empty.
	ErrEmptyJobID = errors.New("job id cannot be empty")

	// ErrReadinessMismatch indicates metadata whose ready flag disagrees with its sections.
	ErrReadinessMismatch = errors.New("embedding_ready does not match sections_embedded")
)
