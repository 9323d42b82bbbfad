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

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotReady indicates the document exists but the requested artifact
	// has not been promoted yet.
	ErrNotReady = errors.New("artifact not ready")

	// ErrLeaseHeld indicates an unexpired lease already covers the
	// (document, stage) pair.
	ErrLeaseHeld = errors.New("stage already running")

	// ErrConflict indicates a transaction lost a write race and should
	// be retried by the caller.
	ErrConflict = errors.New("commit conflict")

	// ErrStaleCommit indicates the document changed between stage execution
	// and commit (cancelled or resubmitted); the run result was recorded in
	// the ledger but not promoted.
	ErrStaleCommit = errors.New("stale stage commit")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
