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
	"github.com/poiesic/ruleforge/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalSummary serializes a Summary to bytes.
func MarshalSummary(summary *core.Summary) []byte {
	buf := make([]byte, core.SummaryMUS.Size(*summary))
	core.SummaryMUS.Marshal(*summary, buf)
	return buf
}

// UnmarshalSummary deserializes a Summary from bytes.
func UnmarshalSummary(data []byte) (*core.Summary, error) {
	summary, _, err := core.SummaryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// MarshalRuleSet serializes a RuleSet to bytes.
func MarshalRuleSet(rs *core.RuleSet) []byte {
	buf := make([]byte, core.RuleSetMUS.Size(*rs))
	core.RuleSetMUS.Marshal(*rs, buf)
	return buf
}

// UnmarshalRuleSet deserializes a RuleSet from bytes.
func UnmarshalRuleSet(data []byte) (*core.RuleSet, error) {
	rs, _, err := core.RuleSetMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// MarshalPipelineRun serializes a PipelineRun to bytes.
func MarshalPipelineRun(run *core.PipelineRun) []byte {
	buf := make([]byte, core.PipelineRunMUS.Size(*run))
	core.PipelineRunMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalPipelineRun deserializes a PipelineRun from bytes.
func UnmarshalPipelineRun(data []byte) (*core.PipelineRun, error) {
	run, _, err := core.PipelineRunMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
