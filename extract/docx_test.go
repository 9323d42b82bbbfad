package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/poiesic/ruleforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestDocxExtractor(t *testing.T) {
	const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Section 1. Payment Terms.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Invoices are due </w:t></w:r><w:r><w:t>within 30 days.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	e := NewDocxExtractor()
	text, err := e.Extract(context.Background(), buildDocx(t, documentXML))
	require.NoError(t, err)

	assert.Equal(t, "Section 1. Payment Terms.\nInvoices are due within 30 days.", text)
}

func TestDocxExtractorNotAZip(t *testing.T) {
	e := NewDocxExtractor()

	_, err := e.Extract(context.Background(), []byte("plain bytes, not a zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorruptDocument)
	assert.True(t, core.IsPermanent(err))
}

func TestDocxExtractorMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := NewDocxExtractor()
	_, err = e.Extract(context.Background(), buf.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorruptDocument)
}
