package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// EntityRepository implements storage.EntityRepository for BadgerDB.
type EntityRepository struct {
	backend *Backend
}

var _ storage.EntityRepository = (*EntityRepository)(nil)

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(backend *Backend) (*EntityRepository, error) {
	return &EntityRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *EntityRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EntityRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutEntityTags stores the tags for an article with overwrite semantics.
func (r *EntityRepository) PutEntityTags(ctx context.Context, tags *core.EntityTags) error {
	if err := core.ValidateEntityTags(tags); err != nil {
		return fmt.Errorf("invalid entity tags: %w", err)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEntityKey(tags.ArticleId), storage.MarshalEntityTags(tags)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntityTags retrieves the tags for an article.
func (r *EntityRepository) GetEntityTags(ctx context.Context, articleID core.ID) (*core.EntityTags, error) {
	var result *core.EntityTags
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntityKey(articleID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			result, decodeErr = storage.UnmarshalEntityTags(val)
			return decodeErr
		})
	}, false)
	return result, err
}
