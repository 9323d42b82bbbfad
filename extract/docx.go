package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/ruleforge/core"
)

// DocxExtractor handles DOCX documents. A DOCX file is a zip archive; the
// body text lives in word/document.xml as runs of <w:t> elements grouped
// into <w:p> paragraphs.
type DocxExtractor struct{}

var _ Extractor = (*DocxExtractor)(nil)

// NewDocxExtractor creates a DOCX extractor.
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// MediaTypes lists the media types this extractor handles.
func (e *DocxExtractor) MediaTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

// Extract returns the text content of a DOCX document.
func (e *DocxExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", core.Permanent(fmt.Errorf("%w: not a zip archive: %v", core.ErrCorruptDocument, err))
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", core.Permanent(fmt.Errorf("%w: missing word/document.xml", core.ErrCorruptDocument))
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", core.Permanent(fmt.Errorf("%w: %v", core.ErrCorruptDocument, err))
	}
	defer rc.Close()

	text, err := decodeDocumentXML(rc)
	if err != nil {
		return "", core.Permanent(fmt.Errorf("%w: %v", core.ErrCorruptDocument, err))
	}
	return text, nil
}

// decodeDocumentXML walks the WordprocessingML token stream collecting the
// character data inside <w:t> elements. Paragraph boundaries become newlines.
func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
