package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	return IDFromBytes([]byte(text))
}

// IDFromBytes generates a deterministic ID from raw bytes using BLAKE2b hashing.
func IDFromBytes(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash returns the full BLAKE2b-256 digest of data as a hex string.
// Used for upload deduplication and content-addressed blob keys.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Stage identifies a unit of pipeline work for a document.
type Stage int

const (
	// StageExtract pulls text out of the raw document bytes.
	StageExtract Stage = iota + 1
	// StageSummarize produces a summary from the extracted text.
	StageSummarize
	// StageRules derives a rule set from the summary or extracted text.
	StageRules
)

func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "extract"
	case StageSummarize:
		return "summarize"
	case StageRules:
		return "rules"
	default:
		return "unknown"
	}
}

// ActiveStatus returns the document status that marks the stage as in progress.
func (s Stage) ActiveStatus() DocumentStatus {
	switch s {
	case StageExtract:
		return StatusExtracting
	case StageSummarize:
		return StatusSummarizing
	case StageRules:
		return StatusExtractingRules
	default:
		return 0
	}
}

// DocumentStatus tracks a document's position in the pipeline.
// The non-terminal statuses name the stage currently being processed.
type DocumentStatus int

const (
	// StatusPending means the document is uploaded but no stage has started.
	StatusPending DocumentStatus = iota + 1
	// StatusExtracting means the extract stage is in progress or retrying.
	StatusExtracting
	// StatusSummarizing means the summarize stage is in progress or retrying.
	StatusSummarizing
	// StatusExtractingRules means the rules stage is in progress or retrying.
	StatusExtractingRules
	// StatusCompleted means all stages succeeded. Terminal.
	StatusCompleted
	// StatusFailed means a stage failed permanently. Terminal.
	StatusFailed
	// StatusCancelled means processing was stopped between stages.
	StatusCancelled
)

func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExtracting:
		return "extracting"
	case StatusSummarizing:
		return "summarizing"
	case StatusExtractingRules:
		return "extracting_rules"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further automatic processing will occur.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// NextStage returns the stage to run for a document in this status,
// or 0 if the status is terminal.
func (s DocumentStatus) NextStage() Stage {
	switch s {
	case StatusPending, StatusExtracting:
		return StageExtract
	case StatusSummarizing:
		return StageSummarize
	case StatusExtractingRules:
		return StageRules
	default:
		return 0
	}
}

// DocumentType categorizes the uploaded document.
type DocumentType string

const (
	DocumentTypeContract DocumentType = "contract"
	DocumentTypePolicy   DocumentType = "policy"
)

// Document is the pipeline's unit of work.
// Created on upload, mutated only by stage-completion transitions.
type Document struct {
	Id           ID
	Filename     string
	MediaType    string
	Type         DocumentType
	ByteSize     int64
	ContentHash  string // hex BLAKE2b-256 of the raw bytes, used for dedup
	RawKey       string // blob key of the raw bytes
	TextKey      string // blob key of the extracted text; empty until extract commits
	Status       DocumentStatus
	Sequence     int // resubmission sequence, starts at 1
	StageAttempt int // attempts consumed by the current stage
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the summarize stage's artifact.
type Summary struct {
	Id         ID
	DocumentId ID
	Sequence   int
	Provider   string
	Text       string
	CreatedAt  time.Time
}

// Rule is a single extracted business rule.
type Rule struct {
	Text       string
	Category   string
	Confidence float64 // in [0, 1]
}

// RuleSet is the rules stage's artifact: an ordered sequence of rules.
type RuleSet struct {
	Id         ID
	DocumentId ID
	Sequence   int
	Provider   string
	Rules      []Rule
	CreatedAt  time.Time
}

// RuleCategories defines the valid categories for extracted rules.
var RuleCategories = []string{
	"eligibility",
	"payment",
	"approval",
	"penalty",
	"termination",
	"compliance",
	"general",
}

// RunOutcome classifies how a pipeline run ended.
type RunOutcome int

const (
	// OutcomeInProgress marks a run that holds the stage lease.
	OutcomeInProgress RunOutcome = iota + 1
	// OutcomeSuccess marks a run whose artifact was committed.
	OutcomeSuccess
	// OutcomeTransientFailure marks a run that will be retried.
	OutcomeTransientFailure
	// OutcomePermanentFailure marks a run that terminated its document.
	OutcomePermanentFailure
)

func (o RunOutcome) String() string {
	switch o {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeSuccess:
		return "success"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomePermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// PipelineRun is one entry in the append-only audit/retry ledger.
// For a given (document, sequence, stage) at most one run is in progress.
type PipelineRun struct {
	DocumentId  ID
	Sequence    int
	Stage       Stage
	Attempt     int
	Outcome     RunOutcome
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while in progress
	LeaseExpiry time.Time // zero once finished
}

// LeaseExpired reports whether an in-progress run's lease has lapsed.
func (r *PipelineRun) LeaseExpired(now time.Time) bool {
	return r.Outcome == OutcomeInProgress && now.After(r.LeaseExpiry)
}
