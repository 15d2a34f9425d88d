package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// ArticleRepository implements storage.ArticleRepository for BadgerDB.
type ArticleRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(backend *Backend) (*ArticleRepository, error) {
	idSeq, err := backend.GetSequence(articleIDSeq)
	if err != nil {
		return nil, err
	}

	return &ArticleRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ArticleRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ArticleRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertArticles inserts or replaces one or more articles.
func (r *ArticleRepository) UpsertArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, article := range articles {
			now := time.Now().UTC()
			fingerprint := article.Fingerprint()

			if article.Id == 0 {
				// Byte-identical content maps back to the existing article
				// instead of creating a new row.
				existingID, err := readIndexedID(tx, makeFingerprintKey(fingerprint))
				if err != nil {
					return err
				}
				if existingID != 0 {
					article.Id = existingID
				} else {
					nextID, err := r.idSeq.Next()
					if err != nil {
						return err
					}
					// BadgerDB sequences can return 0 on first call, so we skip it
					if nextID == 0 {
						nextID, err = r.idSeq.Next()
						if err != nil {
							return err
						}
					}
					article.Id = core.ID(nextID)
				}
			}

			// Read prior version to preserve InsertedAt and clean up a stale
			// fingerprint entry when the content changed.
			old, err := r.readArticle(tx, makeArticleKey(article.Id))
			if err != nil {
				return err
			}
			if old != nil {
				article.InsertedAt = old.InsertedAt
				if oldFingerprint := old.Fingerprint(); oldFingerprint != fingerprint {
					if err := tx.Delete(makeFingerprintKey(oldFingerprint)); err != nil {
						return err
					}
				}
			} else {
				article.InsertedAt = now
			}
			article.UpdatedAt = now

			if err := tx.Set(makeArticleKey(article.Id), storage.MarshalArticle(article)); err != nil {
				return err
			}
			if err := tx.Set(makeFingerprintKey(fingerprint), storage.MarshalID(article.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return articles, err
}

// GetArticle retrieves a single article by ID.
func (r *ArticleRepository) GetArticle(ctx context.Context, id core.ID) (*core.Article, error) {
	var result *core.Article
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readArticle(tx, makeArticleKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetArticles retrieves multiple articles by their IDs.
func (r *ArticleRepository) GetArticles(ctx context.Context, ids ...core.ID) ([]*core.Article, error) {
	var result []*core.Article
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			article, err := r.readArticle(tx, makeArticleKey(id))
			if err != nil {
				return err
			}
			if article != nil {
				result = append(result, article)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllArticles retrieves every stored article. Records that cannot be
// decoded are skipped with a warning so one corrupt row never sinks a bulk load.
func (r *ArticleRepository) GetAllArticles(ctx context.Context) ([]*core.Article, error) {
	var results []*core.Article
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articleRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var article *core.Article
			err := item.Value(func(val []byte) error {
				var decodeErr error
				article, decodeErr = storage.UnmarshalArticle(val)
				return decodeErr
			})
			if err != nil {
				if errors.Is(err, storage.ErrMalformedRecord) {
					r.backend.logger.Warn("skipping undecodable article record",
						"key", string(item.Key()), "err", err)
					continue
				}
				return err
			}
			results = append(results, article)
		}
		return nil
	}, false)

	return results, err
}

// DeleteArticles removes articles by their IDs.
func (r *ArticleRepository) DeleteArticles(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeArticleKey(id)

			article, err := r.readArticle(tx, key)
			if err != nil {
				return err
			}
			if article == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeFingerprintKey(article.Fingerprint())); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// readArticle reads an article from the transaction.
// Returns nil, nil when the key does not exist.
func (r *ArticleRepository) readArticle(tx *badger.Txn, key []byte) (*core.Article, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var article *core.Article
	err = item.Value(func(val []byte) error {
		var decodeErr error
		article, decodeErr = storage.UnmarshalArticle(val)
		return decodeErr
	})
	return article, err
}

// readIndexedID reads an ID value from an index key.
// Returns 0, nil when the key does not exist.
func readIndexedID(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var decodeErr error
		id, decodeErr = storage.UnmarshalID(val)
		return decodeErr
	})
	return id, err
}
