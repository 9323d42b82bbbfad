package ai

import "github.com/poiesic/ruleforge/core"

// SummaryResult is a summary together with the provider that produced it.
type SummaryResult struct {
	Provider string
	Text     string
}

// RulesResult is an extracted rule set together with the provider that
// produced it.
type RulesResult struct {
	Provider string
	Rules    []core.Rule
}
