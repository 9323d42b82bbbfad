package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/storage"
)

// commitStage finishes a run and, when the document still matches the run,
// applies the stage's promotion inside the same transaction. A document that
// was cancelled or resubmitted since the lease was taken no longer matches;
// the run outcome is still recorded for the audit trail, but nothing is
// promoted and ErrStaleCommit is reported.
func (s *PipelineStore) commitStage(run *core.PipelineRun, outcome core.RunOutcome, cause string, promote func(tx *badger.Txn, doc *core.Document, now time.Time) error) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, run.DocumentId)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		finished := *run
		finished.Outcome = outcome
		finished.Error = cause
		finished.FinishedAt = now
		finished.LeaseExpiry = time.Time{}
		if err := writeRun(tx, &finished); err != nil {
			return err
		}

		if doc.Sequence != run.Sequence || doc.Status != run.Stage.ActiveStatus() {
			doc = nil
			if err := tx.Commit(); err != nil {
				return err
			}
			return storage.ErrStaleCommit
		}

		if promote != nil {
			if err := promote(tx, doc, now); err != nil {
				return err
			}
		}
		doc.UpdatedAt = now
		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}

// CommitExtract finishes run successfully and advances the document to
// SUMMARIZING with the extracted text's blob key attached.
func (s *PipelineStore) CommitExtract(ctx context.Context, run *core.PipelineRun, textKey string) (*core.Document, error) {
	return s.commitStage(run, core.OutcomeSuccess, "", func(tx *badger.Txn, doc *core.Document, now time.Time) error {
		doc.TextKey = textKey
		doc.Status = core.StatusSummarizing
		doc.StageAttempt = 0
		doc.LastError = ""
		return nil
	})
}

// CommitSummary finishes run successfully, promotes the summary as current,
// and advances the document to EXTRACTING_RULES.
func (s *PipelineStore) CommitSummary(ctx context.Context, run *core.PipelineRun, summary *core.Summary) (*core.Document, error) {
	return s.commitStage(run, core.OutcomeSuccess, "", func(tx *badger.Txn, doc *core.Document, now time.Time) error {
		summary.DocumentId = doc.Id
		summary.Sequence = doc.Sequence
		summary.CreatedAt = now
		if summary.Id == 0 {
			summary.Id = core.IDFromContent(summary.Text)
		}

		data := storage.MarshalSummary(summary)
		if err := tx.Set(makeSummaryKey(doc.Id), data); err != nil {
			return err
		}
		if err := tx.Set(makeHistoryKey(summaryHistPrefix, doc.Id, doc.Sequence), data); err != nil {
			return err
		}
		if err := s.pruneHistory(tx, summaryHistPrefix, doc.Id); err != nil {
			return err
		}

		doc.Status = core.StatusExtractingRules
		doc.StageAttempt = 0
		doc.LastError = ""
		return nil
	})
}

// CommitRules finishes run successfully, promotes the rule set as current,
// and completes the document.
func (s *PipelineStore) CommitRules(ctx context.Context, run *core.PipelineRun, rules *core.RuleSet) (*core.Document, error) {
	return s.commitStage(run, core.OutcomeSuccess, "", func(tx *badger.Txn, doc *core.Document, now time.Time) error {
		rules.DocumentId = doc.Id
		rules.Sequence = doc.Sequence
		rules.CreatedAt = now
		if rules.Id == 0 {
			rules.Id = core.IDFromBytes(storage.MarshalRuleSet(rules))
		}

		data := storage.MarshalRuleSet(rules)
		if err := tx.Set(makeRuleSetKey(doc.Id), data); err != nil {
			return err
		}
		if err := tx.Set(makeHistoryKey(ruleSetHistPrefix, doc.Id, doc.Sequence), data); err != nil {
			return err
		}
		if err := s.pruneHistory(tx, ruleSetHistPrefix, doc.Id); err != nil {
			return err
		}

		doc.Status = core.StatusCompleted
		doc.StageAttempt = 0
		doc.LastError = ""
		return nil
	})
}

// CommitFailure finishes run with a failure outcome. A transient failure
// leaves the document's status alone so the stage can retry; a permanent
// failure terminates the document.
func (s *PipelineStore) CommitFailure(ctx context.Context, run *core.PipelineRun, outcome core.RunOutcome, cause string) (*core.Document, error) {
	return s.commitStage(run, outcome, cause, func(tx *badger.Txn, doc *core.Document, now time.Time) error {
		doc.LastError = cause
		if outcome == core.OutcomePermanentFailure {
			doc.Status = core.StatusFailed
		}
		return nil
	})
}

// CancelDocument marks a non-terminal document CANCELLED.
func (s *PipelineStore) CancelDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if doc.Status.Terminal() {
			return storage.ErrStaleCommit
		}
		doc.Status = core.StatusCancelled
		doc.UpdatedAt = time.Now().UTC()
		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}

// ResubmitDocument starts a fresh run sequence from the extract stage.
// Previously promoted artifacts remain current until the new sequence
// replaces them.
func (s *PipelineStore) ResubmitDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		doc.Sequence++
		doc.Status = core.StatusPending
		doc.TextKey = ""
		doc.StageAttempt = 0
		doc.LastError = ""
		doc.UpdatedAt = time.Now().UTC()
		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}
