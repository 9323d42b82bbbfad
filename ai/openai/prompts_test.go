package openai

import (
	"strings"
	"testing"

	"github.com/poiesic/ruleforge/core"
	"github.com/stretchr/testify/assert"
)

func TestBuildRulesPrompt(t *testing.T) {
	prompt := buildRulesPrompt()

	assert.Contains(t, prompt, rulesResponseSchema)
	for _, category := range core.RuleCategories {
		assert.Contains(t, prompt, category)
	}

	// The few-shot example must survive template formatting intact,
	// literal percent sign included.
	assert.Contains(t, prompt, "interest at 1.5% per month")
	assert.NotContains(t, prompt, "MISSING")
	assert.NotContains(t, prompt, "%!")
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := buildSummaryPrompt(150)

	assert.Contains(t, prompt, "at most 150 words")
	assert.False(t, strings.Contains(prompt, "%d"))
}
