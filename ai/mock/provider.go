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


package mock

import "github.com/poiesic/ruleforge/ai"

// Provider is a test double for ai.Provider.
// It aggregates mock summarizer and rule extractor instances.
type Provider struct {
	name       string
	summarizer *Summarizer
	extractor  *RuleExtractor
}

// NewProvider creates a mock provider named "mock" with default mock services.
//
// Returns the concrete type so tests can reach the underlying mocks via
// MockSummarizer()/MockRuleExtractor() for assertions.
func NewProvider() *Provider {
	return &Provider{
		name:       "mock",
		summarizer: NewSummarizer(),
		extractor:  NewRuleExtractor(),
	}
}

// NewNamedProvider creates a mock provider with a custom name and services.
// This allows full control over the behavior of each service, and distinct
// names when several mock providers share a registry.
func NewNamedProvider(name string, summarizer *Summarizer, extractor *RuleExtractor) *Provider {
	return &Provider{
		name:       name,
		summarizer: summarizer,
		extractor:  extractor,
	}
}

// Name identifies the provider.
func (p *Provider) Name() string {
	return p.name
}

// Summarizer returns the mock summarizer.
func (p *Provider) Summarizer() ai.Summarizer {
	return p.summarizer
}

// RuleExtractor returns the mock rule extractor.
func (p *Provider) RuleExtractor() ai.RuleExtractor {
	return p.extractor
}

// Close is a no-op for the mock provider.
func (p *Provider) Close() error {
	return nil
}

// MockSummarizer returns the underlying mock summarizer for test assertions.
func (p *Provider) MockSummarizer() *Summarizer {
	return p.summarizer
}

// MockRuleExtractor returns the underlying mock rule extractor for test
// assertions.
func (p *Provider) MockRuleExtractor() *RuleExtractor {
	return p.extractor
}
