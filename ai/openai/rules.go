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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/ruleforge/ai"
	"github.com/poiesic/ruleforge/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RuleExtractor implements ai.RuleExtractor using OpenAI-compatible chat APIs.
type RuleExtractor struct {
	client        llms.Model
	minConfidence float64
	logger        *slog.Logger
}

// rule is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type rule struct {
	Rule       string  `json:"rule"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Rules []rule `json:"rules"`
}

// newRuleExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRuleExtractor(config *ai.Config) (*RuleExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.RuleHost),
		openai.WithToken("none"),
		openai.WithModel(config.RuleModel),
	)
	if err != nil {
		return nil, err
	}

	return &RuleExtractor{
		client:        client,
		minConfidence: config.MinConfidence,
		logger:        slog.Default().With("component", "openai-rules"),
	}, nil
}

// NewRuleExtractor creates a new rule extractor using the provided configuration.
//
// Returns ai.RuleExtractor interface to enforce abstraction.
func NewRuleExtractor(config *ai.Config) (ai.RuleExtractor, error) {
	return newRuleExtractor(config)
}

// ExtractRules derives business rules from document text using an LLM.
// It applies confidence filtering and returns only rules at or above the
// configured threshold, highest confidence first.
func (e *RuleExtractor) ExtractRules(ctx context.Context, text string) ([]core.Rule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.Permanent(ai.ErrEmptyText)
	}
	text = clipWords(text, maxInputWords)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRulesPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, classifyErr(err)
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []core.Rule{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, core.Transient(ai.ErrMalformedResponse)
	}

	// Filter by confidence and convert to core.Rule
	rules := make([]core.Rule, 0, len(result.Rules))
	for _, r := range result.Rules {
		if r.Confidence < e.minConfidence {
			continue
		}
		if r.Confidence > 1 {
			r.Confidence = 1
		}
		ruleText := strings.TrimSpace(r.Rule)
		if ruleText == "" {
			continue
		}
		rules = append(rules, core.Rule{
			Text:       ruleText,
			Category:   normalizeCategory(r.Category),
			Confidence: r.Confidence,
		})
	}

	// Sort by confidence (descending)
	slices.SortFunc(rules, func(a, b core.Rule) int {
		if a.Confidence == b.Confidence {
			return 0
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return -1
	})

	e.logger.Debug("extracted rules",
		"total", len(result.Rules),
		"filtered", len(rules))
	return rules, nil
}

// normalizeCategory maps a model-supplied category onto the known set;
// anything unrecognized lands in "general".
func normalizeCategory(category string) string {
	category = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "_")
	if slices.Contains(core.RuleCategories, category) {
		return category
	}
	return "general"
}
