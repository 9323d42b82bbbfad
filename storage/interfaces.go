package storage

import (
	"context"
	"time"

	"github.com/poiesic/ruleforge/core"
)

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	// CreateDocument adds a new document to storage.
	// Generates an ID from sequence, sets Sequence to 1 and timestamps.
	// Returns ErrDuplicateKey if a document with the same content hash exists.
	CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// FindDocumentByHash looks a document up by its content hash.
	// Returns ErrNotFound if no document has that hash.
	FindDocumentByHash(ctx context.Context, hash string) (*core.Document, error)

	// ListDocuments returns up to limit documents ordered by ID.
	// A limit <= 0 returns all documents.
	ListDocuments(ctx context.Context, limit int) ([]*core.Document, error)
}

// RunRepository provides the append-only pipeline run ledger and the
// stage leases that keep execution single-flight.
type RunRepository interface {
	// TryAcquireLease records a new in-progress run for the document's
	// given stage, attempt = prior attempts for (sequence, stage) + 1,
	// with a lease deadline of now + leaseDuration. A PENDING document
	// moves to the stage's active status in the same transaction.
	//
	// Returns ErrLeaseHeld if an unexpired in-progress run exists for the
	// pair. An expired in-progress run is closed out as a transient
	// failure and the lease is granted to the caller (crash recovery).
	// Returns ErrStaleCommit if the document is terminal or its status
	// doesn't admit the stage.
	TryAcquireLease(ctx context.Context, id core.ID, stage core.Stage, leaseDuration time.Duration) (*core.PipelineRun, error)

	// ListRuns retrieves the run ledger for a document, oldest first.
	// A stage of 0 lists runs for every stage.
	ListRuns(ctx context.Context, id core.ID, stage core.Stage) ([]*core.PipelineRun, error)
}

// ArtifactRepository provides access to promoted and historical artifacts.
type ArtifactRepository interface {
	// GetCurrentSummary retrieves the promoted summary for a document.
	// Returns ErrNotFound if no summary has been promoted.
	GetCurrentSummary(ctx context.Context, id core.ID) (*core.Summary, error)

	// GetCurrentRuleSet retrieves the promoted rule set for a document.
	// Returns ErrNotFound if no rule set has been promoted.
	GetCurrentRuleSet(ctx context.Context, id core.ID) (*core.RuleSet, error)

	// ListSummaryHistory returns retained summaries for a document,
	// oldest sequence first, including the current one.
	ListSummaryHistory(ctx context.Context, id core.ID) ([]*core.Summary, error)

	// ListRuleSetHistory returns retained rule sets for a document,
	// oldest sequence first, including the current one.
	ListRuleSetHistory(ctx context.Context, id core.ID) ([]*core.RuleSet, error)
}

// PipelineStore is the durable source of truth for the pipeline state
// machine. Stage commits are atomic: the run outcome, the artifact write,
// and the document status transition land in one transaction, so a reader
// never observes a status past a stage without that stage's artifact, or
// the reverse.
//
// Every commit validates that the document still matches the run's
// sequence and active status; when it doesn't (cancelled or resubmitted
// meanwhile), the run outcome is still recorded in the ledger but nothing
// is promoted, and ErrStaleCommit is returned.
type PipelineStore interface {
	DocumentRepository
	RunRepository
	ArtifactRepository

	// CommitExtract finishes run with OutcomeSuccess, stores the extracted
	// text's blob key on the document, and advances it to SUMMARIZING.
	CommitExtract(ctx context.Context, run *core.PipelineRun, textKey string) (*core.Document, error)

	// CommitSummary finishes run with OutcomeSuccess, promotes summary as
	// current, and advances the document to EXTRACTING_RULES.
	CommitSummary(ctx context.Context, run *core.PipelineRun, summary *core.Summary) (*core.Document, error)

	// CommitRules finishes run with OutcomeSuccess, promotes rules as
	// current, and advances the document to COMPLETED.
	CommitRules(ctx context.Context, run *core.PipelineRun, rules *core.RuleSet) (*core.Document, error)

	// CommitFailure finishes run with the given failure outcome.
	// OutcomeTransientFailure leaves the document status unchanged;
	// OutcomePermanentFailure moves it to FAILED. The cause is recorded on
	// both the run and the document.
	CommitFailure(ctx context.Context, run *core.PipelineRun, outcome core.RunOutcome, cause string) (*core.Document, error)

	// CancelDocument marks a non-terminal document CANCELLED.
	// Returns ErrStaleCommit if the document is already terminal.
	CancelDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ResubmitDocument starts a fresh run sequence from EXTRACT: increments
	// Sequence, resets the status to PENDING and clears the extracted-text
	// key. Prior artifacts stay promoted until the new sequence replaces
	// them. Works on any document, including COMPLETED and FAILED ones.
	ResubmitDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// Close closes the store and releases resources.
	Close() error
}

// BlobStore provides content-addressed storage for raw document bytes and
// derived text. Keys are opaque content-hash strings; Put is idempotent
// for identical content.
type BlobStore interface {
	// Put stores data and returns its content key.
	Put(ctx context.Context, data []byte) (string, error)

	// Get retrieves the data stored under key.
	// Returns ErrNotFound if no blob has that key.
	Get(ctx context.Context, key string) ([]byte, error)
}
