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


// Package ruleforge analyzes contracts and policy documents: uploads are
// driven through text extraction, summarization, and business-rule
// extraction by a durable, retrying pipeline.
package ruleforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ruleforge/ai"
	"github.com/poiesic/ruleforge/ai/openai"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/extract"
	"github.com/poiesic/ruleforge/pipeline"
	"github.com/poiesic/ruleforge/storage"
	"github.com/poiesic/ruleforge/storage/badger"
)

// MaxUploadBytes bounds the size of an uploaded document.
const MaxUploadBytes = 32 << 20

var (
	// ErrEmptyDocument is returned when an upload carries no bytes.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrDocumentTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
)

// Service wires storage, extraction, AI providers, and the pipeline into
// one entry point.
type Service struct {
	backend      *badger.Backend
	store        storage.PipelineStore
	blobs        *badger.BlobStore
	extractors   *extract.Registry
	providers    *ai.Registry
	orchestrator *pipeline.Orchestrator
	dispatcher   *pipeline.Dispatcher
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig        *ai.Config
	providers       []ai.Provider
	storeOpts       []badger.StoreOption
	pipelineOpts    []pipeline.Option
	dispatcherOpts  []pipeline.DispatcherOption
	extraExtractors []extract.Extractor
}

// WithAIConfig sets the configuration for the default OpenAI-compatible
// provider. Ignored when WithProviders is used.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithProviders replaces the default OpenAI-compatible provider with an
// explicit provider list in falling priority order.
func WithProviders(providers ...ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.providers = providers
	}
}

// WithStoreOptions passes options through to the pipeline store.
func WithStoreOptions(opts ...badger.StoreOption) ServiceOption {
	return func(o *serviceOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithPipelineOptions passes options through to the orchestrator.
func WithPipelineOptions(opts ...pipeline.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithDispatcherOptions passes options through to the dispatcher.
func WithDispatcherOptions(opts ...pipeline.DispatcherOption) ServiceOption {
	return func(o *serviceOptions) {
		o.dispatcherOpts = append(o.dispatcherOpts, opts...)
	}
}

// WithExtractors registers additional extractors on top of the built-in
// text, PDF, and DOCX ones.
func WithExtractors(extractors ...extract.Extractor) ServiceOption {
	return func(o *serviceOptions) {
		o.extraExtractors = append(o.extraExtractors, extractors...)
	}
}

// NewService opens the database at filePath and assembles the pipeline.
// An empty filePath opens an in-memory database, useful for tests.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	store, err := badger.NewPipelineStore(backend, options.storeOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	blobs := badger.NewBlobStore(backend)

	extractors := extract.NewDefaultRegistry()
	for _, e := range options.extraExtractors {
		extractors.Register(e)
	}

	aiProviders := options.providers
	if len(aiProviders) == 0 {
		provider, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			backend.Close()
			return nil, err
		}
		aiProviders = []ai.Provider{provider}
	}
	providers, err := ai.NewRegistry(aiProviders...)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	orchestrator, err := pipeline.NewOrchestrator(store, blobs, extractors, providers, options.pipelineOpts...)
	if err != nil {
		providers.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	dispatcher, err := pipeline.NewDispatcher(orchestrator, options.dispatcherOpts...)
	if err != nil {
		providers.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:      backend,
		store:        store,
		blobs:        blobs,
		extractors:   extractors,
		providers:    providers,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		logger:       slog.Default(),
	}, nil
}

// Close shuts the pipeline down and closes storage.
func (s *Service) Close() error {
	s.dispatcher.Close()

	if err := s.providers.Close(); err != nil {
		s.logger.Error("error closing AI providers", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing pipeline store", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// UploadRequest carries a document into the pipeline.
type UploadRequest struct {
	Filename  string
	MediaType string
	Type      core.DocumentType
	Data      []byte
}

// Upload validates and stores a document and queues it for processing.
// Uploading bytes already known to the service returns the existing
// document together with storage.ErrDuplicateKey.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*core.Document, error) {
	if req.Filename == "" {
		return nil, core.ErrEmptyFilename
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(req.Data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(req.Data))
	}
	if !s.extractors.Supported(req.MediaType) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedMediaType, req.MediaType)
	}
	if req.Type == "" {
		req.Type = core.DocumentTypeContract
	}

	hash := core.ContentHash(req.Data)
	if existing, err := s.store.FindDocumentByHash(ctx, hash); err == nil {
		return existing, storage.ErrDuplicateKey
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	rawKey, err := s.blobs.Put(ctx, req.Data)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.CreateDocument(ctx, &core.Document{
		Filename:    req.Filename,
		MediaType:   extract.NormalizeMediaType(req.MediaType),
		Type:        req.Type,
		ByteSize:    int64(len(req.Data)),
		ContentHash: hash,
		RawKey:      rawKey,
		Status:      core.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Enqueue(doc.Id); err != nil {
		return nil, err
	}
	s.logger.Info("document uploaded",
		"documentId", doc.Id, "filename", doc.Filename, "bytes", doc.ByteSize)
	return doc, nil
}

// Submit queues an existing document for asynchronous processing. Pending
// and in-flight documents are (re-)enqueued; the stage leases make a
// duplicate submission join the running sequence instead of starting a
// second one. A terminal document is not queued and reports
// pipeline.SubmitAlreadyCompleted; use Resubmit to reprocess it.
func (s *Service) Submit(ctx context.Context, id core.ID) (pipeline.SubmitOutcome, *core.Document, error) {
	outcome, doc, err := s.orchestrator.Submit(ctx, id)
	if err != nil || outcome == pipeline.SubmitAlreadyCompleted {
		return outcome, doc, err
	}
	if err := s.dispatcher.Enqueue(id); err != nil {
		return 0, nil, err
	}
	return outcome, doc, nil
}

// ProcessDocument drives a document synchronously to a terminal status.
func (s *Service) ProcessDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.orchestrator.ProcessDocument(ctx, id)
}

// Document retrieves a document by ID.
func (s *Service) Document(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Documents lists up to limit documents; limit <= 0 lists all.
func (s *Service) Documents(ctx context.Context, limit int) ([]*core.Document, error) {
	return s.store.ListDocuments(ctx, limit)
}

// Summary retrieves the current summary for a document. A document that
// exists but has not produced a summary yet yields storage.ErrNotReady;
// an unknown document yields storage.ErrNotFound.
func (s *Service) Summary(ctx context.Context, id core.ID) (*core.Summary, error) {
	summary, err := s.store.GetCurrentSummary(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, s.artifactMissing(ctx, id, err)
	}
	return summary, err
}

// Rules retrieves the current rule set for a document. A document that
// exists but has not produced rules yet yields storage.ErrNotReady;
// an unknown document yields storage.ErrNotFound.
func (s *Service) Rules(ctx context.Context, id core.ID) (*core.RuleSet, error) {
	rules, err := s.store.GetCurrentRuleSet(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, s.artifactMissing(ctx, id, err)
	}
	return rules, err
}

// artifactMissing distinguishes "document unknown" from "document known,
// artifact not promoted yet" after an artifact lookup miss.
func (s *Service) artifactMissing(ctx context.Context, id core.ID, miss error) error {
	if _, err := s.store.GetDocument(ctx, id); err == nil {
		return fmt.Errorf("%w: document %d", storage.ErrNotReady, id)
	}
	return miss
}

// Runs retrieves a document's pipeline run ledger; stage 0 lists all stages.
func (s *Service) Runs(ctx context.Context, id core.ID, stage core.Stage) ([]*core.PipelineRun, error) {
	return s.store.ListRuns(ctx, id, stage)
}

// SummaryHistory lists retained summaries, oldest sequence first.
func (s *Service) SummaryHistory(ctx context.Context, id core.ID) ([]*core.Summary, error) {
	return s.store.ListSummaryHistory(ctx, id)
}

// RuleSetHistory lists retained rule sets, oldest sequence first.
func (s *Service) RuleSetHistory(ctx context.Context, id core.ID) ([]*core.RuleSet, error) {
	return s.store.ListRuleSetHistory(ctx, id)
}

// Cancel stops further processing of a document.
func (s *Service) Cancel(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.orchestrator.Cancel(ctx, id)
}

// Resubmit starts a fresh processing sequence for a document and queues it.
func (s *Service) Resubmit(ctx context.Context, id core.ID) (*core.Document, error) {
	doc, err := s.orchestrator.Resubmit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.dispatcher.Enqueue(doc.Id); err != nil {
		return nil, err
	}
	return doc, nil
}
