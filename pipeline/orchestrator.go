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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ruleforge/ai"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/extract"
	"github.com/poiesic/ruleforge/storage"
)

// conflictRetries bounds how often an advance is replayed after an
// optimistic-concurrency conflict before giving up. Conflict replays don't
// consume stage attempts.
const conflictRetries = 5

// AdvanceOutcome describes what a single Advance call did for a document.
type AdvanceOutcome int

const (
	// AdvanceProgressed means a stage committed successfully and the next
	// stage (if any) is ready to run.
	AdvanceProgressed AdvanceOutcome = iota + 1
	// AdvanceRetryScheduled means the stage failed transiently and should be
	// retried after the result's RetryAfter delay.
	AdvanceRetryScheduled
	// AdvanceTerminal means the document reached a terminal status.
	AdvanceTerminal
	// AdvanceSkipped means nothing was done: another worker holds the stage
	// lease, or the document changed underneath the call.
	AdvanceSkipped
)

func (o AdvanceOutcome) String() string {
	switch o {
	case AdvanceProgressed:
		return "progressed"
	case AdvanceRetryScheduled:
		return "retry_scheduled"
	case AdvanceTerminal:
		return "terminal"
	case AdvanceSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SubmitOutcome discriminates what submitting a document for processing did.
type SubmitOutcome int

const (
	// SubmitAccepted means the document is pending and ready to be queued.
	SubmitAccepted SubmitOutcome = iota + 1
	// SubmitAlreadyProcessing means a stage already started; queueing again
	// is harmless because stage leases keep execution single-flight.
	SubmitAlreadyProcessing
	// SubmitAlreadyCompleted means the document is terminal and will not be
	// queued. Reprocessing takes an explicit Resubmit.
	SubmitAlreadyCompleted
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitAccepted:
		return "accepted"
	case SubmitAlreadyProcessing:
		return "already_processing"
	case SubmitAlreadyCompleted:
		return "already_completed"
	default:
		return "unknown"
	}
}

// AdvanceResult carries the outcome of one Advance call.
type AdvanceResult struct {
	Outcome  AdvanceOutcome
	Document *core.Document

	// RetryAfter is the backoff delay before the next attempt.
	// Set only when Outcome is AdvanceRetryScheduled.
	RetryAfter time.Duration
}

// Orchestrator drives documents through the pipeline state machine.
// It is safe for concurrent use; the store's leases keep concurrent calls
// for the same document single-flight.
type Orchestrator struct {
	store         storage.PipelineStore
	blobs         storage.BlobStore
	extractors    *extract.Registry
	providers     *ai.Registry
	maxAttempts   int
	leaseDuration time.Duration
	backoffBase   time.Duration
	backoffCap    time.Duration
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithMaxAttempts sets the per-stage attempt budget.
// Default is 3.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		o.maxAttempts = n
		return nil
	}
}

// WithLeaseDuration sets how long a stage lease is honored before a crashed
// holder's run can be reclaimed. Default is 2 minutes.
func WithLeaseDuration(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return fmt.Errorf("lease duration must be positive, got %s", d)
		}
		o.leaseDuration = d
		return nil
	}
}

// WithBackoff sets the retry backoff base delay and ceiling.
// Defaults are 1 second and 1 minute.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(o *Orchestrator) error {
		if base <= 0 || ceiling < base {
			return fmt.Errorf("invalid backoff bounds: base %s, ceiling %s", base, ceiling)
		}
		o.backoffBase = base
		o.backoffCap = ceiling
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given store, blob store,
// extractor registry, and provider registry.
func NewOrchestrator(
	store storage.PipelineStore,
	blobs storage.BlobStore,
	extractors *extract.Registry,
	providers *ai.Registry,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if extractors == nil {
		return nil, ErrExtractorsRequired
	}
	if providers == nil {
		return nil, ErrProvidersRequired
	}

	o := &Orchestrator{
		store:         store,
		blobs:         blobs,
		extractors:    extractors,
		providers:     providers,
		maxAttempts:   3,
		leaseDuration: 2 * time.Minute,
		backoffBase:   time.Second,
		backoffCap:    time.Minute,
		logger:        slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Advance runs the document's next pending stage once: acquire the lease,
// execute, commit. Lost leases and concurrent mutations surface as
// AdvanceSkipped rather than errors; commit conflicts are replayed
// transparently without consuming stage attempts.
func (o *Orchestrator) Advance(ctx context.Context, id core.ID) (*AdvanceResult, error) {
	var lastErr error
	for i := 0; i < conflictRetries; i++ {
		result, err := o.advanceOnce(ctx, id)
		if errors.Is(err, storage.ErrConflict) {
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("advance kept conflicting: %w", lastErr)
}

func (o *Orchestrator) advanceOnce(ctx context.Context, id core.ID) (*AdvanceResult, error) {
	doc, err := o.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	stage := doc.Status.NextStage()
	if stage == 0 {
		return &AdvanceResult{Outcome: AdvanceTerminal, Document: doc}, nil
	}

	run, err := o.store.TryAcquireLease(ctx, id, stage, o.leaseDuration)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrLeaseHeld):
			return &AdvanceResult{Outcome: AdvanceSkipped, Document: doc}, nil
		case errors.Is(err, storage.ErrStaleCommit):
			// Document moved on between the read and the lease attempt
			return &AdvanceResult{Outcome: AdvanceSkipped, Document: doc}, nil
		default:
			return nil, err
		}
	}

	o.logger.Debug("stage lease acquired",
		"documentId", id, "stage", stage.String(), "attempt", run.Attempt)

	after, execErr := o.executeStage(ctx, doc, stage, run)
	if execErr != nil {
		return o.failStage(ctx, run, execErr)
	}

	o.logger.Info("stage committed",
		"documentId", id, "stage", stage.String(), "status", after.Status.String())
	return &AdvanceResult{Outcome: AdvanceProgressed, Document: after}, nil
}

// executeStage produces the stage artifact and commits it. The returned
// error, if any, is classified for failStage.
func (o *Orchestrator) executeStage(ctx context.Context, doc *core.Document, stage core.Stage, run *core.PipelineRun) (*core.Document, error) {
	switch stage {
	case core.StageExtract:
		text, err := o.runExtract(ctx, doc)
		if err != nil {
			return nil, err
		}
		textKey, err := o.blobs.Put(ctx, []byte(text))
		if err != nil {
			return nil, core.Transient(err)
		}
		return o.store.CommitExtract(ctx, run, textKey)

	case core.StageSummarize:
		summary, err := o.runSummarize(ctx, doc)
		if err != nil {
			return nil, err
		}
		return o.store.CommitSummary(ctx, run, summary)

	case core.StageRules:
		rules, err := o.runRules(ctx, doc)
		if err != nil {
			return nil, err
		}
		return o.store.CommitRules(ctx, run, rules)

	default:
		return nil, core.Permanent(fmt.Errorf("no executor for stage %s", stage))
	}
}

func (o *Orchestrator) runExtract(ctx context.Context, doc *core.Document) (string, error) {
	raw, err := o.blobs.Get(ctx, doc.RawKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", core.Permanent(fmt.Errorf("raw blob missing: %w", err))
		}
		return "", core.Transient(err)
	}

	text, err := o.extractors.Extract(ctx, doc.MediaType, raw)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", core.Permanent(fmt.Errorf("%w: no text content", core.ErrCorruptDocument))
	}
	return text, nil
}

func (o *Orchestrator) runSummarize(ctx context.Context, doc *core.Document) (*core.Summary, error) {
	text, err := o.extractedText(ctx, doc)
	if err != nil {
		return nil, err
	}

	result, err := o.providers.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	return &core.Summary{Provider: result.Provider, Text: result.Text}, nil
}

func (o *Orchestrator) runRules(ctx context.Context, doc *core.Document) (*core.RuleSet, error) {
	text, err := o.extractedText(ctx, doc)
	if err != nil {
		return nil, err
	}

	result, err := o.providers.ExtractRules(ctx, text)
	if err != nil {
		return nil, err
	}

	ruleSet := &core.RuleSet{Provider: result.Provider, Rules: result.Rules}
	if err := core.ValidateRuleSet(ruleSet); err != nil {
		return nil, core.Permanent(err)
	}
	return ruleSet, nil
}

func (o *Orchestrator) extractedText(ctx context.Context, doc *core.Document) (string, error) {
	if doc.TextKey == "" {
		return "", core.Permanent(fmt.Errorf("document %d has no extracted text", doc.Id))
	}
	data, err := o.blobs.Get(ctx, doc.TextKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", core.Permanent(fmt.Errorf("text blob missing: %w", err))
		}
		return "", core.Transient(err)
	}
	return string(data), nil
}

// failStage records a stage failure. A permanent failure terminates the
// document. A transient failure on the last budgeted attempt is escalated to
// permanent so the ledger closes with the attempt that exhausted the budget.
func (o *Orchestrator) failStage(ctx context.Context, run *core.PipelineRun, cause error) (*AdvanceResult, error) {
	outcome := core.OutcomeTransientFailure
	if core.IsPermanent(cause) {
		outcome = core.OutcomePermanentFailure
	} else if run.Attempt >= o.maxAttempts {
		o.logger.Warn("attempt budget exhausted, escalating to permanent",
			"documentId", run.DocumentId, "stage", run.Stage.String(), "attempt", run.Attempt)
		outcome = core.OutcomePermanentFailure
	}

	doc, err := o.store.CommitFailure(ctx, run, outcome, cause.Error())
	if err != nil {
		if errors.Is(err, storage.ErrStaleCommit) {
			current, getErr := o.store.GetDocument(ctx, run.DocumentId)
			if getErr != nil {
				return nil, getErr
			}
			return &AdvanceResult{Outcome: AdvanceSkipped, Document: current}, nil
		}
		return nil, err
	}

	if outcome == core.OutcomePermanentFailure {
		o.logger.Error("stage failed permanently",
			"documentId", run.DocumentId, "stage", run.Stage.String(),
			"attempt", run.Attempt, "err", cause)
		return &AdvanceResult{Outcome: AdvanceTerminal, Document: doc}, nil
	}

	delay := backoffDelay(run.Attempt, o.backoffBase, o.backoffCap)
	o.logger.Warn("stage failed, retry scheduled",
		"documentId", run.DocumentId, "stage", run.Stage.String(),
		"attempt", run.Attempt, "retryAfter", delay, "err", cause)
	return &AdvanceResult{Outcome: AdvanceRetryScheduled, Document: doc, RetryAfter: delay}, nil
}

// ProcessDocument drives a document synchronously to a terminal status,
// sleeping through retry backoff. When another worker holds the stage lease
// it waits for that worker's progress instead of returning early. Intended
// for CLI use; services should use the Dispatcher.
func (o *Orchestrator) ProcessDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	for {
		result, err := o.Advance(ctx, id)
		if err != nil {
			return nil, err
		}

		var wait time.Duration
		switch result.Outcome {
		case AdvanceProgressed:
			continue
		case AdvanceTerminal:
			return result.Document, nil
		case AdvanceRetryScheduled:
			wait = result.RetryAfter
		case AdvanceSkipped:
			if result.Document.Status.Terminal() {
				return result.Document, nil
			}
			wait = 20 * time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result.Document, ctx.Err()
		case <-timer.C:
		}
	}
}

// Submit classifies whether a document may be queued for processing.
// SubmitAccepted and SubmitAlreadyProcessing both admit enqueueing (leases
// make duplicate dispatch harmless and never start a second run sequence);
// SubmitAlreadyCompleted signals a terminal document that needs Resubmit.
func (o *Orchestrator) Submit(ctx context.Context, id core.ID) (SubmitOutcome, *core.Document, error) {
	doc, err := o.store.GetDocument(ctx, id)
	if err != nil {
		return 0, nil, err
	}

	switch {
	case doc.Status.Terminal():
		return SubmitAlreadyCompleted, doc, nil
	case doc.Status != core.StatusPending:
		return SubmitAlreadyProcessing, doc, nil
	default:
		return SubmitAccepted, doc, nil
	}
}

// Cancel stops further processing of a document. A stage already in flight
// finishes its attempt, but its result is not promoted.
func (o *Orchestrator) Cancel(ctx context.Context, id core.ID) (*core.Document, error) {
	return o.store.CancelDocument(ctx, id)
}

// Resubmit starts a fresh processing sequence for a document from the
// extract stage. Prior artifacts stay available until replaced.
func (o *Orchestrator) Resubmit(ctx context.Context, id core.ID) (*core.Document, error) {
	return o.store.ResubmitDocument(ctx, id)
}
