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


// Package embed provides abstractions for text embedding backends used in
// Newsdesk.
//
// The package defines the Embedder interface and a Fallback wrapper that
// degrades from a pretrained embedding service to a corpus-fitted lexical
// model when the service is unavailable. The engine and ingestion pipeline
// depend only on the interface, never on a concrete backend.
//
// # Implementation Packages
//
//   - embed/openai: production implementation over OpenAI-compatible APIs
//   - embed/lexical: self-contained TF-IDF model fitted on the local corpus
//   - embed/mock: test doubles for unit testing without external services
//
// Every embedder is an explicit, injected dependency: nothing in this package
// or its subpackages holds process-global model state, so two engines in one
// process never share or clobber each other's vocabulary.
//
// Constructors in the implementation packages return interface types to
// enforce abstraction; mock constructors return concrete types so tests can
// inject behavior and make assertions.
package embed
