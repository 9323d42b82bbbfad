package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain-text documents. Input that is not valid UTF-8
// is decoded as Latin-1 rather than rejected, since legacy contract exports
// commonly use it.
type TextExtractor struct{}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// MediaTypes lists the media types this extractor handles.
func (e *TextExtractor) MediaTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// Extract returns the text content of data.
func (e *TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data)), nil
	}

	// Latin-1 fallback: every byte maps to the code point of the same value
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return strings.TrimSpace(string(runes)), nil
}
