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


package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/poiesic/ruleforge/core"
)

// PDFExtractor handles PDF documents using pdfcpu. pdfcpu's API is
// file-based, so each extraction round-trips through a temp directory.
type PDFExtractor struct {
	config *model.Configuration
	logger *slog.Logger
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor with relaxed validation, which
// tolerates the minor spec violations common in scanned contract PDFs.
func NewPDFExtractor() *PDFExtractor {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{
		config: cfg,
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// MediaTypes lists the media types this extractor handles.
func (e *PDFExtractor) MediaTypes() []string {
	return []string{"application/pdf"}
}

// Extract returns the text content of a PDF document.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	workDir, err := os.MkdirTemp("", "ruleforge-pdf-*")
	if err != nil {
		return "", core.Transient(fmt.Errorf("creating temp dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	inFile := filepath.Join(workDir, "document.pdf")
	if err := os.WriteFile(inFile, data, 0o600); err != nil {
		return "", core.Transient(fmt.Errorf("writing temp file: %w", err))
	}

	if err := api.ValidateFile(inFile, e.config); err != nil {
		return "", core.Permanent(fmt.Errorf("%w: %v", core.ErrCorruptDocument, err))
	}

	pageCount, err := api.PageCountFile(inFile)
	if err != nil {
		return "", core.Permanent(fmt.Errorf("%w: %v", core.ErrCorruptDocument, err))
	}

	outDir := filepath.Join(workDir, "content")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return "", core.Transient(fmt.Errorf("creating content dir: %w", err))
	}
	if err := api.ExtractContentFile(inFile, outDir, nil, e.config); err != nil {
		return "", core.Permanent(fmt.Errorf("%w: %v", core.ErrCorruptDocument, err))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", core.Transient(fmt.Errorf("reading content dir: %w", err))
	}

	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			return "", core.Transient(fmt.Errorf("reading page content: %w", err))
		}
		if text := decodeContentText(raw); text != "" {
			pages = append(pages, text)
		}
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	e.logger.Debug("extracted pdf text", "pages", pageCount, "chars", len(text))
	return text, nil
}

// decodeContentText pulls string literals out of a PDF content stream.
// Text-showing operators carry their payload in parenthesized literals; the
// parser handles nesting and the standard escape sequences and ignores the
// surrounding operators.
func decodeContentText(content []byte) string {
	var sb strings.Builder
	depth := 0

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if depth == 0 {
			if ch == '(' {
				depth = 1
			}
			continue
		}

		switch ch {
		case '\\':
			if i+1 >= len(content) {
				break
			}
			i++
			switch content[i] {
			case 'n', 'r':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '(', ')', '\\':
				sb.WriteByte(content[i])
			}
		case '(':
			depth++
			sb.WriteByte(ch)
		case ')':
			depth--
			if depth == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteByte(ch)
			}
		default:
			sb.WriteByte(ch)
		}
	}

	return strings.TrimSpace(sb.String())
}
