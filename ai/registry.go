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


package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ruleforge/core"
)

// Registry holds providers in priority order. Calls go to the first
// provider; when it fails permanently the next provider is tried, so a
// misconfigured or capability-limited primary doesn't terminate documents a
// secondary could handle. Transient failures are returned to the caller
// unchanged so the pipeline's retry machinery keeps control of pacing.
type Registry struct {
	providers []Provider
	logger    *slog.Logger
}

// NewRegistry creates a registry with providers in falling priority order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return &Registry{
		providers: providers,
		logger:    slog.Default().With("component", "ai-registry"),
	}, nil
}

// Providers returns the registered providers in priority order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// Summarize produces a summary using the highest-priority provider able to
// serve the request.
func (r *Registry) Summarize(ctx context.Context, text string) (*SummaryResult, error) {
	var lastErr error
	for _, provider := range r.providers {
		summary, err := provider.Summarizer().Summarize(ctx, text)
		if err == nil {
			return &SummaryResult{Provider: provider.Name(), Text: summary}, nil
		}
		if !core.IsPermanent(err) {
			return nil, err
		}
		r.logger.Warn("provider failed permanently, trying next",
			"provider", provider.Name(), "operation", "summarize", "err", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// ExtractRules derives rules using the highest-priority provider able to
// serve the request.
func (r *Registry) ExtractRules(ctx context.Context, text string) (*RulesResult, error) {
	var lastErr error
	for _, provider := range r.providers {
		rules, err := provider.RuleExtractor().ExtractRules(ctx, text)
		if err == nil {
			return &RulesResult{Provider: provider.Name(), Rules: rules}, nil
		}
		if !core.IsPermanent(err) {
			return nil, err
		}
		r.logger.Warn("provider failed permanently, trying next",
			"provider", provider.Name(), "operation", "extract_rules", "err", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// Close closes every registered provider, returning the first error.
func (r *Registry) Close() error {
	var firstErr error
	for _, provider := range r.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
