package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/storage"
)

// BlobStore is a content-addressed blob store backed by BadgerDB. Keys are
// BLAKE2b-256 hex digests of the content, so Put is idempotent.
type BlobStore struct {
	backend *Backend
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a BlobStore on the given backend.
func NewBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{backend: backend}
}

// Put stores data and returns its content key.
func (b *BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	key := core.ContentHash(data)
	err := b.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeBlobKey(key))
		if err == nil {
			return nil // identical content already stored
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(makeBlobKey(key), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", mapTxErr(err)
	}
	return key, nil
}

// Get retrieves the data stored under key.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, mapTxErr(err)
	}
	return data, nil
}
