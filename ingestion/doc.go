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

// Package ingestion feeds raw job records through normalization, embedding
// and classification into the job store.
//
// Pipeline handles one record at a time and is shared by the HTTP handler,
// the CLI and the reconciler. Loader streams CSV or JSON Lines files through
// a Pipeline with a cap on the number of saved records per run.
package ingestion
