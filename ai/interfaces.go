package ai

import (
	"context"

	"github.com/poiesic/ruleforge/core"
)

// Summarizer condenses document text into a prose summary.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize produces a summary of the given text. The summary length is
	// bounded by the provider's configured word budget.
	// Returns an error classified as transient or permanent via the core
	// error wrappers; unclassified errors are treated as transient.
	Summarize(ctx context.Context, text string) (string, error)
}

// RuleExtractor derives structured business rules from document text.
// Implementations must be thread-safe for concurrent use.
type RuleExtractor interface {
	// ExtractRules analyzes text and returns the business rules it states,
	// each with a category and a confidence score in [0, 1]. Rules below
	// the provider's configured confidence floor are filtered out.
	// Returns an empty slice if no rules are found.
	ExtractRules(ctx context.Context, text string) ([]core.Rule, error)
}

// Provider is a named language-model backend supplying both pipeline
// services. Providers share configuration and resources between the two.
type Provider interface {
	// Name identifies the provider; it is recorded on produced artifacts.
	Name() string

	// Summarizer returns the summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// RuleExtractor returns the rule extraction service.
	// The returned RuleExtractor is safe for concurrent use.
	RuleExtractor() RuleExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
