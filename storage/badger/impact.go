package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// ImpactRepository implements storage.ImpactRepository for BadgerDB.
type ImpactRepository struct {
	backend *Backend
}

var _ storage.ImpactRepository = (*ImpactRepository)(nil)

// NewImpactRepository creates a new ImpactRepository.
func NewImpactRepository(backend *Backend) (*ImpactRepository, error) {
	return &ImpactRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ImpactRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ImpactRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutImpactReport stores the report for an article with overwrite semantics.
func (r *ImpactRepository) PutImpactReport(ctx context.Context, report *core.ImpactReport) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeImpactKey(report.ArticleId), storage.MarshalImpactReport(report)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetImpactReport retrieves the report for an article.
func (r *ImpactRepository) GetImpactReport(ctx context.Context, articleID core.ID) (*core.ImpactReport, error) {
	var result *core.ImpactReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeImpactKey(articleID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			result, decodeErr = storage.UnmarshalImpactReport(val)
			return decodeErr
		})
	}, false)
	return result, err
}
