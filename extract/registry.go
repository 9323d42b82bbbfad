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
	"strings"

	"github.com/poiesic/ruleforge/core"
)

// Extractor converts raw document bytes of one media-type family into plain
// text. Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// MediaTypes lists the media types this extractor handles.
	MediaTypes() []string

	// Extract returns the plain text content of data.
	// Returns an error wrapping core.ErrCorruptDocument when the bytes
	// cannot be parsed as the claimed media type.
	Extract(ctx context.Context, data []byte) (string, error)
}

// Registry routes documents to extractors by media type.
// Registration happens at startup; lookups are read-only afterwards.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// NewDefaultRegistry creates a registry with the built-in extractors for
// plain text, PDF, and DOCX.
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewTextExtractor(), NewPDFExtractor(), NewDocxExtractor())
}

// Register adds an extractor for all its media types, replacing any previous
// registration for the same type.
func (r *Registry) Register(e Extractor) {
	for _, mediaType := range e.MediaTypes() {
		r.extractors[NormalizeMediaType(mediaType)] = e
	}
}

// Resolve returns the extractor for a media type.
// Returns core.ErrUnsupportedMediaType if none is registered.
func (r *Registry) Resolve(mediaType string) (Extractor, error) {
	e, ok := r.extractors[NormalizeMediaType(mediaType)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedMediaType, mediaType)
	}
	return e, nil
}

// Supported reports whether a media type has a registered extractor.
func (r *Registry) Supported(mediaType string) bool {
	_, ok := r.extractors[NormalizeMediaType(mediaType)]
	return ok
}

// Extract routes data to the extractor for its media type.
func (r *Registry) Extract(ctx context.Context, mediaType string, data []byte) (string, error) {
	e, err := r.Resolve(mediaType)
	if err != nil {
		return "", err
	}
	return e.Extract(ctx, data)
}

// NormalizeMediaType canonicalizes a media type for lookup: lowercase, with
// any parameters (charset etc.) stripped.
func NormalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return mediaType
}
