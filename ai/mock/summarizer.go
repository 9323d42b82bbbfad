package mock

import (
	"context"
	"strings"
	"sync"
)

// defaultSummaryWords is how many leading words the default summary keeps.
const defaultSummaryWords = 50

// Summarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type Summarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, returns the leading words of the input text.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// WithSummarizeFunc sets custom summarize behavior and returns the mock for
// chaining.
func (m *Summarizer) WithSummarizeFunc(fn func(ctx context.Context, text string) (string, error)) *Summarizer {
	m.SummarizeFunc = fn
	return m
}

// Summarize returns a deterministic summary: the leading words of the input.
func (m *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	words := strings.Fields(text)
	if len(words) > defaultSummaryWords {
		words = words[:defaultSummaryWords]
	}
	return strings.Join(words, " "), nil
}

// CallCount returns the number of times Summarize was called.
func (m *Summarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *Summarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SummarizeFunc = nil
}
