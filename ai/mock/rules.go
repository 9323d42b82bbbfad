package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ruleforge/core"
)

// RuleExtractor is a test double for ai.RuleExtractor.
// It allows custom behavior injection via function fields.
type RuleExtractor struct {
	// ExtractRulesFunc is called by ExtractRules if set.
	// If nil, returns a fixed set of three categorized rules.
	ExtractRulesFunc func(ctx context.Context, text string) ([]core.Rule, error)

	mu        sync.Mutex
	callCount int
}

// NewRuleExtractor creates a mock rule extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// WithExtractRulesFunc sets custom extraction behavior and returns the mock
// for chaining.
func (m *RuleExtractor) WithExtractRulesFunc(fn func(ctx context.Context, text string) ([]core.Rule, error)) *RuleExtractor {
	m.ExtractRulesFunc = fn
	return m
}

// ExtractRules returns a fixed, deterministic rule set.
func (m *RuleExtractor) ExtractRules(ctx context.Context, text string) ([]core.Rule, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractRulesFunc != nil {
		return m.ExtractRulesFunc(ctx, text)
	}

	return []core.Rule{
		{Text: "Invoices are payable within 30 days of receipt.", Category: "payment", Confidence: 0.95},
		{Text: "Either party may terminate the agreement with 60 days written notice.", Category: "termination", Confidence: 0.9},
		{Text: "The supplier must maintain confidentiality of client data.", Category: "compliance", Confidence: 0.85},
	}, nil
}

// CallCount returns the number of times ExtractRules was called.
func (m *RuleExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *RuleExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractRulesFunc = nil
}
