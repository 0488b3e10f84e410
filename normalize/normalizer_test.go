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

package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/poiesic/jobvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_TitleAndSkillsFromNewlines(t *testing.T) {
	raw := core.RawRecord{
		"Job Title": "  Senior Dev  ",
		"Skills":    "Go\nRust",
	}

	job := Normalize(raw, "fallback-1")

	assert.Equal(t, "fallback-1", job.JobID)
	require.NotNil(t, job.Job.Title)
	assert.Equal(t, "Senior Dev", *job.Job.Title)
	assert.Equal(t, []string{"Go", "Rust"}, job.Job.Sections.RequiredSkills)
}

func TestNormalize_SingleLineSkillsStayWhole(t *testing.T) {
	job := Normalize(core.RawRecord{"skills_desc": "Python, PyTorch"}, "x")

	assert.Equal(t, []string{"Python, PyTorch"}, job.Job.Sections.RequiredSkills)
	assert.Nil(t, job.Job.Title)
}

func TestNormalize_EmptyRecord(t *testing.T) {
	job := Normalize(core.RawRecord{}, "only-id")

	assert.Equal(t, "only-id", job.JobID)
	assert.Nil(t, job.Job.Title)
	assert.Nil(t, job.Job.Company)
	assert.Nil(t, job.Job.Location)
	assert.Nil(t, job.Job.EmploymentType)
	assert.Nil(t, job.Job.ExperienceRequired)
	assert.Nil(t, job.Job.Sections.Description)
	assert.NotNil(t, job.Job.Sections.RequiredSkills)
	assert.Empty(t, job.Job.Sections.RequiredSkills)
	assert.Empty(t, job.Job.Sections.Responsibilities)
	assert.Empty(t, job.Job.Sections.Qualifications)
}

func TestNormalize_NilRecord(t *testing.T) {
	job := Normalize(nil, "id")
	assert.Equal(t, "id", job.JobID)
	assert.Nil(t, job.Job.Title)
}

func TestNormalize_IDResolution(t *testing.T) {
	tests := []struct {
		name     string
		raw      core.RawRecord
		fallback string
		want     string
	}{
		{"naukri uniq id", core.RawRecord{"Uniq Id": "abc123"}, "naukri-1", "abc123"},
		{"snake case uniq_id", core.RawRecord{"uniq_id": "u-9"}, "f", "u-9"},
		{"job id", core.RawRecord{"jobid": "77"}, "f", "77"},
		{"job_id field", core.RawRecord{"job_id": "stored-1"}, "f", "stored-1"},
		{"numeric id", core.RawRecord{"Job ID": float64(3904095574)}, "f", "3904095574"},
		{"uniq id wins over job id", core.RawRecord{"uniq id": "u", "job id": "j"}, "f", "u"},
		{"blank id falls back", core.RawRecord{"uniq id": "   "}, "fallback", "fallback"},
		{"no id key", core.RawRecord{"title": "Dev"}, "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.fallback).JobID)
		})
	}
}

func TestNormalize_KeyMatchingInvariant(t *testing.T) {
	groups := map[string][]string{
		"title":       TitleKeys,
		"company":     CompanyKeys,
		"location":    LocationKeys,
		"employment":  EmploymentTypeKeys,
		"experience":  ExperienceRequiredKeys,
		"description": DescriptionKeys,
	}

	variants := func(k string) []string {
		upper := strings.ToUpper(k)
		snake := strings.ReplaceAll(k, " ", "_")
		spaced := strings.ReplaceAll(k, "_", " ")
		words := strings.Fields(spaced)
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		camel := strings.Join(words, "")
		squashed := strings.ReplaceAll(strings.ReplaceAll(k, "_", ""), " ", "")
		return []string{k, upper, snake, spaced, strings.Join(words, " "), camel, squashed, "  " + upper + "  "}
	}

	for field, keys := range groups {
		for _, key := range keys {
			for _, v := range variants(key) {
				t.Run(field+"/"+v, func(t *testing.T) {
					job := Normalize(core.RawRecord{v: "value"}, "id")
					var got *string
					switch field {
					case "title":
						got = job.Job.Title
					case "company":
						got = job.Job.Company
					case "location":
						got = job.Job.Location
					case "employment":
						got = job.Job.EmploymentType
					case "experience":
						got = job.Job.ExperienceRequired
					case "description":
						got = job.Job.Sections.Description
					}
					require.NotNil(t, got, "key %q should resolve to %s", v, field)
					assert.Equal(t, "value", *got)
				})
			}
		}
	}
}

func TestNormalize_TitleSpellings(t *testing.T) {
	for _, key := range []string{"Job Title", "job_title", "JOBTITLE", "jobTitle", "job-title"} {
		job := Normalize(core.RawRecord{key: "Engineer"}, "id")
		require.NotNil(t, job.Job.Title, key)
		assert.Equal(t, "Engineer", *job.Job.Title, key)
	}
}

func TestNormalize_SynonymPriority(t *testing.T) {
	raw := core.RawRecord{
		"position":     "Lower priority",
		"title":        "Top priority",
		"company":      "Second",
		"company_name": "First",
		"duties":       []any{"do things"},
	}

	job := Normalize(raw, "id")

	assert.Equal(t, "Top priority", *job.Job.Title)
	assert.Equal(t, "First", *job.Job.Company)
	assert.Equal(t, []string{"do things"}, job.Job.Sections.Responsibilities)
}

func TestNormalize_FirstMatchWinsEvenWhenEmpty(t *testing.T) {
	// A matching key with an empty value is not skipped in favour of a lower priority key
	job := Normalize(core.RawRecord{"title": "   ", "role": "Backup"}, "id")
	assert.Nil(t, job.Job.Title)
}

func TestNormalize_LinkedInRecord(t *testing.T) {
	raw := core.RawRecord{
		"job_id":                     "3884428798",
		"company_name":               "Corcoran Sawyer Smith",
		"title":                      "Marketing Coordinator",
		"description":                "Job descriptionA leading real estate firm\n\n  is seeking   a coordinator.",
		"location":                   "Princeton, NJ",
		"formatted_work_type":        "Full-time",
		"formatted_experience_level": nil,
		"skills_desc":                "Requirements: \nWe are seeking a College or Graduate Student",
	}

	job := Normalize(raw, "fallback")

	assert.Equal(t, "3884428798", job.JobID)
	assert.Equal(t, "Corcoran Sawyer Smith", *job.Job.Company)
	assert.Equal(t, "Full-time", *job.Job.EmploymentType)
	assert.Nil(t, job.Job.ExperienceRequired)
	assert.Equal(t, "Job descriptionA leading real estate firm is seeking a coordinator.", *job.Job.Sections.Description)
	assert.Equal(t, []string{"Requirements:", "We are seeking a College or Graduate Student"}, job.Job.Sections.RequiredSkills)
}

func TestNormalize_NaukriRecord(t *testing.T) {
	raw := core.RawRecord{
		"Uniq Id":                 "f8f0e4b1",
		"Job Title":               "Walkin Data Entry Operator",
		"Key Skills":              "ITES, BPO, KPO, LPO, Customer Service, Operations",
		"Job Experience Required": "0 - 5 yrs",
		"Location":                "Chennai",
		"Role":                    "Associate/Senior Associate",
	}

	job := Normalize(raw, "naukri-1")

	assert.Equal(t, "f8f0e4b1", job.JobID)
	assert.Equal(t, "Walkin Data Entry Operator", *job.Job.Title)
	assert.Equal(t, "0 - 5 yrs", *job.Job.ExperienceRequired)
	assert.Equal(t, "Chennai", *job.Job.Location)
	assert.Equal(t, []string{"ITES, BPO, KPO, LPO, Customer Service, Operations"}, job.Job.Sections.RequiredSkills)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := core.RawRecord{
		"Job Title":        "  Staff\tEngineer ",
		"Responsibilities": "Lead\n\nMentor\n",
		"qualifications":   []any{" BSc ", "", 5.0},
		"Company":          "Acme",
	}

	first := Normalize(raw, "id")
	second := Normalize(raw, "id")

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, first, second)
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Job Title":  "jobtitle",
		"job_title":  "jobtitle",
		"JOBTITLE":   "jobtitle",
		" Uniq-Id ":  "uniqid",
		"":           "",
		"__":         "",
		"Année 2024": "anne2024",
		"Stellenbezeichnung (Ü)": "stellenbezeichnung",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *string
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"collapse and trim", "  a \t b\n\nc  ", ptr("a b c")},
		{"integer float", float64(42), ptr("42")},
		{"fraction", 2.5, ptr("2.5")},
		{"int", 7, ptr("7")},
		{"false", false, nil},
		{"true", true, ptr("true")},
		{"json number", json.Number("1200"), ptr("1200")},
		{"empty any list", []any{}, nil},
		{"empty string list", []string{}, nil},
		{"empty map", map[string]any{}, nil},
		{"non-empty list", []any{"a"}, ptr("[a]")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanString(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestCleanList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"number", 3.0, []string{}},
		{"map", map[string]any{"a": 1}, []string{}},
		{"empty string", "", []string{}},
		{"single line", "Go, Rust", []string{"Go, Rust"}},
		{"multi line", "Go\n  Rust  \n\nZig", []string{"Go", "Rust", "Zig"}},
		{"crlf", "Go\r\nRust", []string{"Go", "Rust"}},
		{"any list", []any{" a ", nil, "", "b  c"}, []string{"a", "b c"}},
		{"string list", []string{"x", "  ", "y"}, []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanList(tt.in))
		})
	}
}

func TestCleanList_SplitEquivalence(t *testing.T) {
	inputs := []string{
		"Design APIs\nWrite tests\n  Review code ",
		"one",
		"\n\nleading\ntrailing\n\n",
		"tabs\there\n  and   spaces",
	}

	for _, in := range inputs {
		lines := strings.Split(in, "\n")
		asAny := make([]any, len(lines))
		for i, l := range lines {
			asAny[i] = l
		}
		assert.Equal(t, CleanList(in), CleanList(lines), in)
		assert.Equal(t, CleanList(in), CleanList(asAny), in)
	}
}

func ptr(s string) *string { return &s }
