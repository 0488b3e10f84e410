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

package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobvec/core"
)

// NewMemoryJobRepository creates an in-memory job repository for testing.
// Caller must close both the repository and the backend when done.
func NewMemoryJobRepository() (*JobRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewJobRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}

// OverwriteDocumentValue replaces the stored bytes of document id without
// touching its indexes. Tests use it to simulate a corrupt record.
func OverwriteDocumentValue(backend *Backend, id core.ID, value []byte) error {
	return backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeJobDocKey(id), value)
	})
}
