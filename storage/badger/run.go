package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/storage"
)

func writeRun(tx *badger.Txn, run *core.PipelineRun) error {
	key := makeRunKey(run.DocumentId, run.Sequence, run.Stage, run.Attempt)
	return tx.Set(key, storage.MarshalPipelineRun(run))
}

// readRuns collects the run ledger for a document in key order, which is
// (sequence, stage, attempt) ascending.
func readRuns(tx *badger.Txn, id core.ID) ([]*core.PipelineRun, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeRunScanPrefix(id)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var runs []*core.PipelineRun
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var run *core.PipelineRun
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			run, unmarshalErr = storage.UnmarshalPipelineRun(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// TryAcquireLease records a new in-progress run for the document's stage.
func (s *PipelineStore) TryAcquireLease(ctx context.Context, id core.ID, stage core.Stage, leaseDuration time.Duration) (*core.PipelineRun, error) {
	var run *core.PipelineRun
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		if doc.Status.Terminal() || doc.Status.NextStage() != stage {
			return storage.ErrStaleCommit
		}

		now := time.Now().UTC()
		runs, err := readRuns(tx, id)
		if err != nil {
			return err
		}

		maxAttempt := 0
		for _, prior := range runs {
			if prior.Sequence != doc.Sequence || prior.Stage != stage {
				continue
			}
			if prior.Attempt > maxAttempt {
				maxAttempt = prior.Attempt
			}
			if prior.Outcome != core.OutcomeInProgress {
				continue
			}
			if !prior.LeaseExpired(now) {
				return storage.ErrLeaseHeld
			}
			// Crash recovery: the holder never committed, so its
			// attempt is closed out and the lease passes to us.
			prior.Outcome = core.OutcomeTransientFailure
			prior.Error = "lease expired"
			prior.FinishedAt = now
			prior.LeaseExpiry = time.Time{}
			if err := writeRun(tx, prior); err != nil {
				return err
			}
			s.logger.Warn("reclaimed expired stage lease",
				"documentId", id, "stage", stage.String(), "attempt", prior.Attempt)
		}

		run = &core.PipelineRun{
			DocumentId:  id,
			Sequence:    doc.Sequence,
			Stage:       stage,
			Attempt:     maxAttempt + 1,
			Outcome:     core.OutcomeInProgress,
			StartedAt:   now,
			LeaseExpiry: now.Add(leaseDuration),
		}
		if err := writeRun(tx, run); err != nil {
			return err
		}

		doc.Status = stage.ActiveStatus()
		doc.StageAttempt = run.Attempt
		doc.UpdatedAt = now
		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, mapTxErr(err)
	}
	return run, nil
}

// ListRuns retrieves the run ledger for a document, oldest first.
func (s *PipelineStore) ListRuns(ctx context.Context, id core.ID, stage core.Stage) ([]*core.PipelineRun, error) {
	var runs []*core.PipelineRun
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		all, err := readRuns(tx, id)
		if err != nil {
			return err
		}
		if stage == 0 {
			runs = all
			return nil
		}
		for _, run := range all {
			if run.Stage == stage {
				runs = append(runs, run)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return runs, nil
}
