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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidRule indicates a Rule failed validation.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidRuleSet indicates a RuleSet failed validation.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyMediaType indicates the MediaType field is empty.
	ErrEmptyMediaType = errors.New("media type cannot be empty")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrEmptyRuleText indicates a rule's Text field is empty.
	ErrEmptyRuleText = errors.New("rule text cannot be empty")

	// ErrInvalidConfidence indicates a confidence score outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

	// ErrUnknownRuleCategory indicates a category outside RuleCategories.
	ErrUnknownRuleCategory = errors.New("unknown rule category")
)

// Input errors are always permanent: retrying cannot fix the document.
var (
	// ErrUnsupportedMediaType indicates no extractor handles the media type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrCorruptDocument indicates the document bytes could not be parsed.
	ErrCorruptDocument = errors.New("corrupt or unparseable document")
)

// TransientError marks a failure worth retrying (timeout, rate limit,
// 5xx-equivalent). The classification is supplied by the failing capability.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix (unsupported input,
// rejected request, exhausted quota, authentication failure).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err with a transient classification.
// Returns nil if err is nil; an already-classified error is returned unchanged.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermanent(err) {
		return err
	}
	return &TransientError{Err: err}
}

// Permanent wraps err with a permanent classification.
// Returns nil if err is nil; an already-classified error is returned unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermanent(err) {
		return err
	}
	return &PermanentError{Err: err}
}

// IsTransient reports whether err carries a transient classification.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err carries a permanent classification.
// Input errors count as permanent even when unwrapped.
func IsPermanent(err error) bool {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrUnsupportedMediaType) || errors.Is(err, ErrCorruptDocument)
}
