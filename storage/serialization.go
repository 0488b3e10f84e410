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

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/jobvec/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalDocument serializes a StoredDocument as an envelope of
// ID, InsertedAt and UpdatedAt followed by the JSON-encoded fields.
func MarshalDocument(doc *core.StoredDocument) ([]byte, error) {
	body, err := json.Marshal(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	id := uint64(doc.ID)
	inserted := timeToMicros(doc.InsertedAt)
	updated := timeToMicros(doc.UpdatedAt)

	size := varint.Uint64.Size(id) +
		varint.Int64.Size(inserted) +
		varint.Int64.Size(updated) +
		ord.ByteSlice.Size(body)
	buf := make([]byte, size)

	n := varint.Uint64.Marshal(id, buf)
	n += varint.Int64.Marshal(inserted, buf[n:])
	n += varint.Int64.Marshal(updated, buf[n:])
	ord.ByteSlice.Marshal(body, buf[n:])
	return buf, nil
}

// UnmarshalDocument deserializes a StoredDocument written by MarshalDocument.
func UnmarshalDocument(data []byte) (*core.StoredDocument, error) {
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	inserted, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: inserted_at: %w", ErrSerializationFailed, err)
	}
	n += m
	updated, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %w", ErrSerializationFailed, err)
	}
	n += m
	body, m, err := ord.ByteSlice.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: body: %w", ErrSerializationFailed, err)
	}
	if n+m != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n-m)
	}

	fields := core.Document{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	return &core.StoredDocument{
		ID:         core.ID(id),
		Fields:     fields,
		InsertedAt: microsToTime(inserted),
		UpdatedAt:  microsToTime(updated),
	}, nil
}

func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
