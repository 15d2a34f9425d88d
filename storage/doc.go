// Copyright 2025 Finsight Labs
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


// Package storage provides the storage abstraction layer for newsdesk.
//
// This package defines repository interfaces that decouple storage
// implementation from the retrieval and deduplication logic, so different
// backends (BadgerDB, in-memory, etc.) can be used interchangeably. The
// method set of each interface is fixed: backends implement the named
// interfaces instead of being probed for whichever methods they happen to
// expose.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ArticleRepository: durable article records
//   - VectorRepository: per-article embedding vectors, partitioned by namespace
//   - StoryRepository: deduplicated story groups
//   - EntityRepository: entity tags produced by the external extraction collaborator
//   - ImpactRepository: stock impact reports derived from entity tags
//
// # Usage
//
// Create repositories over a shared backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	articles, err := badger.NewArticleRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepos()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Mutation is last-writer-wins per key with
// no optimistic concurrency control.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage
