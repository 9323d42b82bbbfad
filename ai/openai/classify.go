package openai

import (
	"strings"

	"github.com/poiesic/ruleforge/core"
)

// classifyErr maps a model call failure to the pipeline's error taxonomy.
// Client-side API errors (bad model, bad auth, oversized request) won't heal
// on retry, so they are permanent; everything else — timeouts, connection
// resets, rate limits, 5xx — is transient.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range []string{
		"status code: 400",
		"status code: 401",
		"status code: 403",
		"status code: 404",
		"status code: 422",
	} {
		if strings.Contains(msg, marker) {
			return core.Permanent(err)
		}
	}
	return core.Transient(err)
}
