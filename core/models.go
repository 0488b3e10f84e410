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

import (
	"encoding/json"
	"strconv"
	"time"
)

// ID is the store-internal identifier of a persisted document.
// It is generated from a database sequence and never reused.
type ID uint64

// String formats the ID as a decimal string.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// SectionName identifies one of the text-bearing parts of a job posting
// that receives its own embedding.
type SectionName string

const (
	SectionTitle            SectionName = "title"
	SectionRequiredSkills   SectionName = "required_skills"
	SectionResponsibilities SectionName = "responsibilities"
	SectionQualifications   SectionName = "qualifications"
	SectionDescription      SectionName = "description"
)

// Sections lists every tracked section in canonical order.
var Sections = []SectionName{
	SectionTitle,
	SectionRequiredSkills,
	SectionResponsibilities,
	SectionQualifications,
	SectionDescription,
}

// RawRecord is an arbitrary source record as read from a CSV row or a JSON payload.
// Keys may use any casing or separator convention.
type RawRecord map[string]any

// Document is the JSON-shaped form of a persisted job document.
// Fields not owned by this service are carried through untouched.
type Document map[string]any

// JobSections holds the list-valued sections and the free-text description.
type JobSections struct {
	RequiredSkills   []string `json:"required_skills"`
	Responsibilities []string `json:"responsibilities"`
	Qualifications   []string `json:"qualifications"`
	Description      *string  `json:"description"`
}

// JobData is the source-agnostic job posting.
// Free-text fields are whitespace-normalized and nil instead of empty.
type JobData struct {
	Title              *string     `json:"title"`
	Company            *string     `json:"company"`
	Location           *string     `json:"location"`
	EmploymentType     *string     `json:"employment_type"`
	ExperienceRequired *string     `json:"experience_required"`
	Sections           JobSections `json:"sections"`
}

// CanonicalJob pairs normalized job data with its resolved identifier.
type CanonicalJob struct {
	JobID string
	Job   JobData
}

// EmbeddingSection is the text fed to the encoder and the vector it produced.
// Vector is set if and only if Text is set and non-empty.
type EmbeddingSection struct {
	Text   *string   `json:"text"`
	Vector []float32 `json:"vector"`
}

// Embedded reports whether the section produced a vector.
func (s EmbeddingSection) Embedded() bool {
	return len(s.Vector) > 0
}

// EmbeddingBundle holds one EmbeddingSection per tracked section.
type EmbeddingBundle struct {
	Title            EmbeddingSection `json:"title"`
	RequiredSkills   EmbeddingSection `json:"required_skills"`
	Responsibilities EmbeddingSection `json:"responsibilities"`
	Qualifications   EmbeddingSection `json:"qualifications"`
	Description      EmbeddingSection `json:"description"`
}

// Section returns a pointer to the named section, or nil for an unknown name.
func (b *EmbeddingBundle) Section(name SectionName) *EmbeddingSection {
	switch name {
	case SectionTitle:
		return &b.Title
	case SectionRequiredSkills:
		return &b.RequiredSkills
	case SectionResponsibilities:
		return &b.Responsibilities
	case SectionQualifications:
		return &b.Qualifications
	case SectionDescription:
		return &b.Description
	}
	return nil
}

// Metadata describes how complete a document's embeddings are.
// EmbeddingReady is true iff SectionsEmbedded is non-empty.
type Metadata struct {
	EmbeddingModel   string   `json:"embedding_model"`
	VectorDimension  int      `json:"vector_dimension"`
	SectionsEmbedded []string `json:"sections_embedded"`
	EmbeddingReady   bool     `json:"embedding_ready"`
}

// StoredJob is the enriched job as written to the store.
// Extra carries original document fields that should be persisted alongside.
type StoredJob struct {
	JobID      string          `json:"job_id"`
	CleanedJob JobData         `json:"cleaned_job"`
	Embeddings EmbeddingBundle `json:"embeddings"`
	Metadata   Metadata        `json:"metadata"`
	Extra      Document        `json:"-"`
}

// Document field names owned by this service.
const (
	FieldJobID      = "job_id"
	FieldCleanedJob = "cleaned_job"
	FieldEmbeddings = "embeddings"
	FieldMetadata   = "metadata"
	FieldReady      = "embedding_ready"
)

// EnrichmentFields returns the three fields rewritten on every enrichment pass,
// in their JSON document form.
func (j *StoredJob) EnrichmentFields() (Document, error) {
	cleaned, err := toJSONValue(j.CleanedJob)
	if err != nil {
		return nil, err
	}
	embeddings, err := toJSONValue(j.Embeddings)
	if err != nil {
		return nil, err
	}
	metadata, err := toJSONValue(j.Metadata)
	if err != nil {
		return nil, err
	}
	return Document{
		FieldCleanedJob: cleaned,
		FieldEmbeddings: embeddings,
		FieldMetadata:   metadata,
	}, nil
}

// Document returns the full document payload for an upsert: Extra fields
// first, then job_id and the enrichment fields on top.
func (j *StoredJob) Document() (Document, error) {
	fields, err := j.EnrichmentFields()
	if err != nil {
		return nil, err
	}
	doc := make(Document, len(j.Extra)+len(fields)+1)
	for k, v := range j.Extra {
		doc[k] = v
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc[FieldJobID] = j.JobID
	return doc, nil
}

// StoredDocument is a persisted document together with its store identity.
type StoredDocument struct {
	ID         ID
	Fields     Document
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// JobID returns the document's job_id field, or "" if absent or not a string.
func (d *StoredDocument) JobID() string {
	if d == nil || d.Fields == nil {
		return ""
	}
	id, _ := d.Fields[FieldJobID].(string)
	return id
}

// IsEmbeddingReady reports whether metadata.embedding_ready is exactly boolean true.
// Anything else, including a missing metadata object, counts as under-embedded.
func IsEmbeddingReady(doc Document) bool {
	meta, ok := doc[FieldMetadata].(map[string]any)
	if !ok {
		if m, isDoc := doc[FieldMetadata].(Document); isDoc {
			meta = m
		} else {
			return false
		}
	}
	ready, ok := meta[FieldReady].(bool)
	return ok && ready
}

// toJSONValue converts v into its generic JSON representation
// (maps, slices, strings, float64, bool, nil).
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
