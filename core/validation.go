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

import (
	"fmt"
	"slices"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - MediaType must not be empty
//   - Status must be a known value
//
// NOT validated (populated by stage transitions):
//   - TextKey (empty until the extract stage commits)
//   - StageAttempt, LastError
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if doc.MediaType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyMediaType)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateRule validates a single extracted rule.
//
// Validation rules:
//   - Text must not be empty
//   - Confidence must be within [0, 1]
//   - Category must be one of RuleCategories
func ValidateRule(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", ErrInvalidRule)
	}

	if rule.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRule, ErrEmptyRuleText)
	}

	if rule.Confidence < 0 || rule.Confidence > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidRule, ErrInvalidConfidence, rule.Confidence)
	}

	if !slices.Contains(RuleCategories, rule.Category) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRule, ErrUnknownRuleCategory, rule.Category)
	}

	return nil
}

// ValidateRuleSet validates a RuleSet and every rule it contains.
func ValidateRuleSet(rs *RuleSet) error {
	if rs == nil {
		return fmt.Errorf("%w: rule set is nil", ErrInvalidRuleSet)
	}

	for i := range rs.Rules {
		if err := ValidateRule(&rs.Rules[i]); err != nil {
			return fmt.Errorf("%w: rule %d: %w", ErrInvalidRuleSet, i, err)
		}
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	if status < StatusPending || status > StatusCancelled {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}
