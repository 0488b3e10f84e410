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
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/jobvec/core"
)

// Normalize maps an arbitrarily keyed record onto the canonical job schema.
// It never fails: fields without a matching key come back nil or empty.
// The job id is taken from a recognized id key when one holds a non-empty
// value, otherwise fallbackID is used.
func Normalize(raw core.RawRecord, fallbackID string) core.CanonicalJob {
	idx := newKeyIndex(raw)

	jobID := fallbackID
	if v, ok := idx.lookup(IDKeys); ok {
		if id := CleanString(v); id != nil {
			jobID = *id
		}
	}

	job := core.JobData{
		Title:              idx.scalar(TitleKeys),
		Company:            idx.scalar(CompanyKeys),
		Location:           idx.scalar(LocationKeys),
		EmploymentType:     idx.scalar(EmploymentTypeKeys),
		ExperienceRequired: idx.scalar(ExperienceRequiredKeys),
		Sections: core.JobSections{
			RequiredSkills:   idx.list(RequiredSkillsKeys),
			Responsibilities: idx.list(ResponsibilitiesKeys),
			Qualifications:   idx.list(QualificationsKeys),
			Description:      idx.scalar(DescriptionKeys),
		},
	}

	return core.CanonicalJob{JobID: jobID, Job: job}
}

// NormalizeKey lowercases k and drops every rune outside [a-z0-9],
// so "Job Title", "job_title" and "JOBTITLE" all become "jobtitle".
func NormalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keyIndex maps normalized keys to the original keys of a record.
type keyIndex struct {
	raw  core.RawRecord
	keys map[string]string
}

func newKeyIndex(raw core.RawRecord) *keyIndex {
	// Sorted so that colliding keys ("Title" and "title") resolve the same way every time
	originals := make([]string, 0, len(raw))
	for k := range raw {
		originals = append(originals, k)
	}
	slices.Sort(originals)

	keys := make(map[string]string, len(originals))
	for _, k := range originals {
		nk := NormalizeKey(k)
		if _, exists := keys[nk]; !exists {
			keys[nk] = k
		}
	}
	return &keyIndex{raw: raw, keys: keys}
}

// lookup returns the value of the first candidate present in the record.
func (ki *keyIndex) lookup(candidates []string) (any, bool) {
	for _, c := range candidates {
		if orig, ok := ki.keys[NormalizeKey(c)]; ok {
			return ki.raw[orig], true
		}
	}
	return nil, false
}

func (ki *keyIndex) scalar(candidates []string) *string {
	v, ok := ki.lookup(candidates)
	if !ok {
		return nil
	}
	return CleanString(v)
}

func (ki *keyIndex) list(candidates []string) []string {
	v, ok := ki.lookup(candidates)
	if !ok {
		return []string{}
	}
	return CleanList(v)
}

// CleanString coerces v to a string, collapses whitespace runs to a single
// space and trims. Empty results, nil, false and empty lists or maps become nil.
func CleanString(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case *string:
		if val == nil {
			return nil
		}
		s = *val
	case bool:
		if !val {
			return nil
		}
		s = "true"
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		s = val.String()
	default:
		switch rv := reflect.ValueOf(val); rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			if rv.Len() == 0 {
				return nil
			}
		}
		s = fmt.Sprint(val)
	}

	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	return &s
}

// CleanList turns v into an ordered list of cleaned, non-empty strings.
// A string is split on newlines first; a string without newlines is a
// single element. Values that are neither strings nor lists yield an empty list.
func CleanList(v any) []string {
	var items []any
	switch val := v.(type) {
	case string:
		for _, line := range strings.Split(val, "\n") {
			items = append(items, line)
		}
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case []any:
		items = val
	default:
		return []string{}
	}

	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := CleanString(item); s != nil {
			cleaned = append(cleaned, *s)
		}
	}
	return cleaned
}
