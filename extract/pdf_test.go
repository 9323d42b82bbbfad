package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeContentText(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "simple Tj operands",
			content:  `BT /F1 12 Tf (Payment is due) Tj (within 30 days.) Tj ET`,
			expected: "Payment is due within 30 days.",
		},
		{
			name:     "escaped parentheses",
			content:  `(see clause \(a\)) Tj`,
			expected: "see clause (a)",
		},
		{
			name:     "escaped backslash and newline",
			content:  `(line one\nline two\\) Tj`,
			expected: "line one\nline two\\",
		},
		{
			name:     "nested parentheses",
			content:  `(outer (inner) text) Tj`,
			expected: "outer (inner) text",
		},
		{
			name:     "no text operators",
			content:  `q 1 0 0 1 0 0 cm /Im0 Do Q`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeContentText([]byte(tt.content)))
		})
	}
}
