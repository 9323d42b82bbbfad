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


// Package ai provides abstractions for the language-model services used by
// the document pipeline.
//
// This package defines interfaces for summarization and rule extraction. The
// pipeline depends on these abstractions rather than on concrete providers,
// so stages can run against any OpenAI-compatible backend or against test
// doubles.
//
// # Design
//
// The package is built around three interfaces:
//
//   - Summarizer: condenses extracted document text into a summary
//   - RuleExtractor: derives categorized business rules from text
//   - Provider: a named backend that supplies both services
//
// A Registry holds providers in priority order and falls back to the next
// provider only when the current one fails permanently; transient failures
// surface to the caller so the pipeline's own retry machinery handles them.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors (openai.NewProvider) return interface types to
// enforce abstraction. Test constructors (mock.NewProvider) return concrete
// types so tests can inject behavior and assert on call counts.
package ai
