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
	"errors"
	"strings"
)

// Config holds configuration for language-model providers.
type Config struct {
	// SummarizerHost is the base URL for the summarization service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	SummarizerHost string

	// RuleHost is the base URL for the rule extraction service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	RuleHost string

	// SummarizerModel is the model identifier to use for summarization.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	SummarizerModel string

	// RuleModel is the model identifier to use for rule extraction.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	RuleModel string

	// MaxSummaryWords bounds the length of produced summaries.
	// Default: 200
	MaxSummaryWords int

	// MinConfidence is the minimum confidence score (0-1) for extracted
	// rules. Rules below this threshold are filtered out.
	// Default: 0.5
	MinConfidence float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithSummarizerHost sets the summarization service host URL.
func WithSummarizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummarizerHost = host
	}
}

// WithRuleHost sets the rule extraction service host URL.
func WithRuleHost(host string) ConfigOption {
	return func(c *Config) {
		c.RuleHost = host
	}
}

// WithHost sets both summarizer and rule extraction hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummarizerHost = host
		c.RuleHost = host
	}
}

// WithSummarizerModel sets the summarization model identifier.
func WithSummarizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.SummarizerModel = model
	}
}

// WithRuleModel sets the rule extraction model identifier.
func WithRuleModel(model string) ConfigOption {
	return func(c *Config) {
		c.RuleModel = model
	}
}

// WithModel sets both model identifiers to the same value.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.SummarizerModel = model
		c.RuleModel = model
	}
}

// WithMaxSummaryWords sets the summary word budget.
func WithMaxSummaryWords(words int) ConfigOption {
	return func(c *Config) {
		c.MaxSummaryWords = words
	}
}

// WithMinConfidence sets the minimum confidence threshold for extracted rules.
func WithMinConfidence(min float64) ConfigOption {
	return func(c *Config) {
		c.MinConfidence = min
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default both services use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		SummarizerHost:  defaultHost,
		RuleHost:        defaultHost,
		SummarizerModel: "qwen2.5:3b",
		RuleModel:       "qwen2.5:3b",
		MaxSummaryWords: 200,
		MinConfidence:   0.5,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.SummarizerHost != "" && !strings.HasSuffix(c.SummarizerHost, "/v1") {
		c.SummarizerHost = strings.TrimSuffix(c.SummarizerHost, "/") + "/v1"
	}
	if c.RuleHost != "" && !strings.HasSuffix(c.RuleHost, "/v1") {
		c.RuleHost = strings.TrimSuffix(c.RuleHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.SummarizerHost == "" {
		return errors.New("ai config: SummarizerHost is required")
	}
	if c.RuleHost == "" {
		return errors.New("ai config: RuleHost is required")
	}
	if c.SummarizerModel == "" {
		return errors.New("ai config: SummarizerModel is required")
	}
	if c.RuleModel == "" {
		return errors.New("ai config: RuleModel is required")
	}
	if c.MaxSummaryWords < 1 {
		return errors.New("ai config: MaxSummaryWords must be positive")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("ai config: MinConfidence must be between 0 and 1")
	}
	return nil
}
