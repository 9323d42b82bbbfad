// Package mock provides test double implementations of the AI service
// interfaces.
//
// This package contains mock implementations of ai.Summarizer,
// ai.RuleExtractor, and ai.Provider for use in unit tests. The mocks allow
// tests to run without external AI services and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider()
//	summary, err := provider.Summarizer().Summarize(ctx, "test")
//
//	// Custom behavior injection
//	summarizer := mock.NewSummarizer().
//	    WithSummarizeFunc(func(ctx context.Context, text string) (string, error) {
//	        return "", core.Transient(errors.New("model overloaded"))
//	    })
//
//	// Check call counts
//	count := summarizer.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - Summarizer: returns the leading words of the input text
//   - RuleExtractor: returns a fixed set of three categorized rules
//   - Provider: aggregates mock summarizer and extractor under the name "mock"
package mock
