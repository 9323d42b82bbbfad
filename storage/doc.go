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


// Package storage provides the storage abstraction layer for ruleforge.
//
// This package defines the interfaces that decouple the pipeline from the
// storage implementation. Two concerns live here:
//
//   - PipelineStore: the durable, strongly consistent record of documents,
//     pipeline runs, and promoted artifacts. It is the single source of
//     truth for the pipeline state machine and the only component requiring
//     transactional discipline. Stage commits are atomic: the artifact write
//     and the status transition are never observably separable.
//
//   - BlobStore: content-addressed storage for raw document bytes and
//     derived text. Keys are content hashes, so writes are idempotent and
//     no locking is needed.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable alternative backends:
//
//	store, err := badger.NewPipelineStore(backend)  // returns storage.PipelineStore
//
// # Concurrency
//
// Exclusive stage execution is enforced through leases: TryAcquireLease
// records an in-progress pipeline run with a lease deadline inside one
// transaction, failing with ErrLeaseHeld while an unexpired lease exists.
// A crashed worker's lease lapses and becomes reclaimable.
//
// Backend write conflicts surface as ErrConflict. Conflicts reflect
// contention rather than business failure, so callers retry them without
// consuming stage attempts.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
