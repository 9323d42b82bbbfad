package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/storage"
)

// GetCurrentSummary retrieves the promoted summary for a document.
func (s *PipelineStore) GetCurrentSummary(ctx context.Context, id core.ID) (*core.Summary, error) {
	var summary *core.Summary
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			summary, unmarshalErr = storage.UnmarshalSummary(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return summary, nil
}

// GetCurrentRuleSet retrieves the promoted rule set for a document.
func (s *PipelineStore) GetCurrentRuleSet(ctx context.Context, id core.ID) (*core.RuleSet, error) {
	var rules *core.RuleSet
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRuleSetKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			rules, unmarshalErr = storage.UnmarshalRuleSet(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return rules, nil
}

// ListSummaryHistory returns retained summaries oldest sequence first.
func (s *PipelineStore) ListSummaryHistory(ctx context.Context, id core.ID) ([]*core.Summary, error) {
	var summaries []*core.Summary
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeHistoryScanPrefix(summaryHistPrefix, id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var summary *core.Summary
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				summary, unmarshalErr = storage.UnmarshalSummary(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			summaries = append(summaries, summary)
		}
		return nil
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return summaries, nil
}

// ListRuleSetHistory returns retained rule sets oldest sequence first.
func (s *PipelineStore) ListRuleSetHistory(ctx context.Context, id core.ID) ([]*core.RuleSet, error) {
	var ruleSets []*core.RuleSet
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeHistoryScanPrefix(ruleSetHistPrefix, id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var ruleSet *core.RuleSet
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				ruleSet, unmarshalErr = storage.UnmarshalRuleSet(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			ruleSets = append(ruleSets, ruleSet)
		}
		return nil
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return ruleSets, nil
}

// pruneHistory drops the oldest history entries for a document so at most
// keepHistory remain. No-op when retention is unlimited.
func (s *PipelineStore) pruneHistory(tx *badger.Txn, prefix string, id core.ID) error {
	if s.keepHistory <= 0 {
		return nil
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeHistoryScanPrefix(prefix, id)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	for len(keys) > s.keepHistory {
		if err := tx.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}
