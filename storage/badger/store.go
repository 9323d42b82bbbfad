package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/storage"
)

// PipelineStore implements storage.PipelineStore on BadgerDB.
// Stage commits run inside a single badger transaction, which provides the
// atomicity between run outcome, artifact, and document status.
type PipelineStore struct {
	backend     *Backend
	idSeq       *badger.Sequence
	keepHistory int
	logger      *slog.Logger
}

var _ storage.PipelineStore = (*PipelineStore)(nil)

// StoreOption configures a PipelineStore.
type StoreOption func(*PipelineStore)

// WithKeepHistory sets how many historical artifact entries are retained
// per document, counting the current one. Zero or negative keeps all.
// Default is keep all.
func WithKeepHistory(n int) StoreOption {
	return func(s *PipelineStore) {
		s.keepHistory = n
	}
}

// WithStoreLogger sets a custom logger. Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *PipelineStore) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewPipelineStore creates a PipelineStore on the given backend.
func NewPipelineStore(backend *Backend, opts ...StoreOption) (storage.PipelineStore, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	s := &PipelineStore{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the ID sequence. The backend is closed by its owner.
func (s *PipelineStore) Close() error {
	return s.idSeq.Release()
}

// mapTxErr translates badger errors to storage sentinel errors.
func mapTxErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return storage.ErrConflict
	case errors.Is(err, badger.ErrKeyNotFound):
		return storage.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return storage.ErrStorageClosed
	default:
		return err
	}
}

// readDocument loads a document inside a transaction.
// Returns storage.ErrNotFound if the key is absent.
func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

func writeDocument(tx *badger.Txn, doc *core.Document) error {
	return tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc))
}

// CreateDocument adds a new document to storage.
func (s *PipelineStore) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		// Dedup by content hash
		if doc.ContentHash != "" {
			_, err := tx.Get(makeDocumentHashKey(doc.ContentHash))
			if err == nil {
				return storage.ErrDuplicateKey
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		nextID, err := s.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = s.idSeq.Next()
			if err != nil {
				return err
			}
		}
		doc.Id = core.ID(nextID)

		if doc.Status == 0 {
			doc.Status = core.StatusPending
		}
		doc.Sequence = 1
		doc.CreatedAt = time.Now().UTC()
		doc.UpdatedAt = doc.CreatedAt

		if err := core.ValidateDocument(doc); err != nil {
			return err
		}

		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		if doc.ContentHash != "" {
			if err := tx.Set(makeDocumentHashKey(doc.ContentHash), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *PipelineStore) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var readErr error
		doc, readErr = readDocument(tx, id)
		return readErr
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}

// FindDocumentByHash looks a document up by its content hash.
func (s *PipelineStore) FindDocumentByHash(ctx context.Context, hash string) (*core.Document, error) {
	var doc *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentHashKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var unmarshalErr error
			id, unmarshalErr = storage.UnmarshalID(val)
			return unmarshalErr
		}); err != nil {
			return err
		}

		doc, err = readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return doc, nil
}

// ListDocuments returns up to limit documents in key order.
func (s *PipelineStore) ListDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var docs []*core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(docs) >= limit {
				break
			}
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				doc, unmarshalErr = storage.UnmarshalDocument(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return docs, nil
}
