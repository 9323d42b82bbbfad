package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/ruleforge/core"
)

const rulesResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "rule": {
            "type": "string"
          },
          "category": {
            "type": "string"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["rule", "category", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["rules"],
  "additionalProperties": false
}`

const rulesPromptTemplate = `Extract the business rules stated in the given contract or policy text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Each rule is one complete, self-contained obligation, entitlement, or constraint, stated in a single sentence.
- Category must match exactly one of the listed values: %s.
- Confidence is a number from 0 (guessed) to 1 (explicitly and unambiguously stated in the text).
- Include only rules that are explicitly stated or clearly implied by the text. Do not hallucinate.
- Preserve concrete figures: amounts, percentages, deadlines, and notice periods belong in the rule text.
- If no rules can be identified, return "rules": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Invoices are payable within 30 days of receipt. Late payments accrue interest at 1.5%% per month. Either party may terminate with 60 days written notice."
Output:
{
  "rules": [
    {"rule":"Invoices are payable within 30 days of receipt.","category":"payment","confidence":0.95},
    {"rule":"Late payments accrue interest at 1.5 percent per month.","category":"penalty","confidence":0.9},
    {"rule":"Either party may terminate the agreement with 60 days written notice.","category":"termination","confidence":0.9}
  ]
}`

const summaryPromptTemplate = `You are a contract analyst. Summarize the given contract or policy document in plain prose.

- Use at most %d words.
- Cover the parties, the subject matter, the key obligations, payment terms, and termination conditions.
- State only what the document says. Do not speculate or add advice.
- Output the summary text only, with no headings, preamble, or bullet points.`

// buildRulesPrompt creates the system prompt with rule categories embedded.
func buildRulesPrompt() string {
	return fmt.Sprintf(rulesPromptTemplate,
		rulesResponseSchema,
		strings.Join(core.RuleCategories, ", "))
}

// buildSummaryPrompt creates the summarization system prompt with the word
// budget embedded.
func buildSummaryPrompt(maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, maxWords)
}
