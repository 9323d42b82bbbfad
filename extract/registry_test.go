package extract

import (
	"context"
	"testing"

	"github.com/poiesic/ruleforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"text/plain", "text/plain"},
		{"TEXT/PLAIN", "text/plain"},
		{"text/plain; charset=utf-8", "text/plain"},
		{"  Application/PDF ", "application/pdf"},
		{"text/plain;charset=latin-1", "text/plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeMediaType(tt.input))
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewDefaultRegistry()

	e, err := registry.Resolve("text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.IsType(t, &TextExtractor{}, e)

	e, err = registry.Resolve("application/pdf")
	require.NoError(t, err)
	assert.IsType(t, &PDFExtractor{}, e)

	assert.True(t, registry.Supported("APPLICATION/PDF"))
	assert.False(t, registry.Supported("image/png"))
}

func TestRegistryUnsupportedTypeIsPermanent(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.Extract(context.Background(), "image/png", []byte("bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedMediaType)
	assert.True(t, core.IsPermanent(err))
}

func TestTextExtractorUTF8(t *testing.T) {
	e := NewTextExtractor()

	text, err := e.Extract(context.Background(), []byte("  The parties agree as follows.\n"))
	require.NoError(t, err)
	assert.Equal(t, "The parties agree as follows.", text)
}

func TestTextExtractorLatin1Fallback(t *testing.T) {
	e := NewTextExtractor()

	// "café" encoded as Latin-1: 0xE9 is not valid UTF-8
	text, err := e.Extract(context.Background(), []byte{'c', 'a', 'f', 0xE9})
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}
