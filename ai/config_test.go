package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.SummarizerHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.RuleHost)
	assert.Equal(t, "qwen2.5:3b", cfg.SummarizerModel)
	assert.Equal(t, "qwen2.5:3b", cfg.RuleModel)
	assert.Equal(t, 200, cfg.MaxSummaryWords)
	assert.Equal(t, 0.5, cfg.MinConfidence)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.SummarizerHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.RuleHost)
		assert.Equal(t, 0.5, cfg.MinConfidence)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.SummarizerHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.RuleHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithSummarizerHost("http://summarize:8080/v1"),
			WithRuleHost("http://rules:9090/v1"),
		)

		assert.Equal(t, "http://summarize:8080/v1", cfg.SummarizerHost)
		assert.Equal(t, "http://rules:9090/v1", cfg.RuleHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithSummarizerModel("gpt-4o-mini"),
			WithRuleModel("gpt-4o"),
		)

		assert.Equal(t, "gpt-4o-mini", cfg.SummarizerModel)
		assert.Equal(t, "gpt-4o", cfg.RuleModel)
	})

	t.Run("with shared model", func(t *testing.T) {
		cfg := NewConfig(WithModel("gpt-4o-mini"))

		assert.Equal(t, "gpt-4o-mini", cfg.SummarizerModel)
		assert.Equal(t, "gpt-4o-mini", cfg.RuleModel)
	})

	t.Run("with custom thresholds", func(t *testing.T) {
		cfg := NewConfig(
			WithMaxSummaryWords(120),
			WithMinConfidence(0.7),
		)

		assert.Equal(t, 120, cfg.MaxSummaryWords)
		assert.Equal(t, 0.7, cfg.MinConfidence)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithModel("custom-model"),
			WithMaxSummaryWords(150),
			WithMinConfidence(0.6),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.SummarizerHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.RuleHost)
		assert.Equal(t, "custom-model", cfg.SummarizerModel)
		assert.Equal(t, "custom-model", cfg.RuleModel)
		assert.Equal(t, 150, cfg.MaxSummaryWords)
		assert.Equal(t, 0.6, cfg.MinConfidence)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		summarizerHost     string
		ruleHost           string
		expectedSummarizer string
		expectedRule       string
	}{
		{
			name:               "already has /v1",
			summarizerHost:     "http://localhost:11434/v1",
			ruleHost:           "http://localhost:11434/v1",
			expectedSummarizer: "http://localhost:11434/v1",
			expectedRule:       "http://localhost:11434/v1",
		},
		{
			name:               "missing /v1",
			summarizerHost:     "http://localhost:11434",
			ruleHost:           "http://localhost:11434",
			expectedSummarizer: "http://localhost:11434/v1",
			expectedRule:       "http://localhost:11434/v1",
		},
		{
			name:               "trailing slash",
			summarizerHost:     "http://localhost:11434/",
			ruleHost:           "http://localhost:11434/",
			expectedSummarizer: "http://localhost:11434/v1",
			expectedRule:       "http://localhost:11434/v1",
		},
		{
			name:               "mixed",
			summarizerHost:     "http://localhost:11434/v1",
			ruleHost:           "http://other:9090",
			expectedSummarizer: "http://localhost:11434/v1",
			expectedRule:       "http://other:9090/v1",
		},
		{
			name:               "empty hosts left alone",
			summarizerHost:     "",
			ruleHost:           "",
			expectedSummarizer: "",
			expectedRule:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				SummarizerHost: tt.summarizerHost,
				RuleHost:       tt.ruleHost,
			}
			cfg.Normalize()

			assert.Equal(t, tt.expectedSummarizer, cfg.SummarizerHost)
			assert.Equal(t, tt.expectedRule, cfg.RuleHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid default config", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("validate normalizes hosts", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.SummarizerHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty summarizer host", func(c *Config) { c.SummarizerHost = "" }},
		{"empty rule host", func(c *Config) { c.RuleHost = "" }},
		{"empty summarizer model", func(c *Config) { c.SummarizerModel = "" }},
		{"empty rule model", func(c *Config) { c.RuleModel = "" }},
		{"zero summary words", func(c *Config) { c.MaxSummaryWords = 0 }},
		{"negative confidence", func(c *Config) { c.MinConfidence = -0.1 }},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
