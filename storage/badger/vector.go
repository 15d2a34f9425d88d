package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// similarityEpsilon guards cosine similarity against division by zero for
// zero-norm vectors.
const similarityEpsilon = 1e-12

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Vectors are stored per namespace; the first write to a namespace pins its
// dimension under a separate key.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	return &VectorRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Put stores the vector for (articleID, namespace) with overwrite semantics.
func (r *VectorRepository) Put(ctx context.Context, articleID core.ID, vector []float32, namespace string) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for article %d", storage.ErrDimensionMismatch, articleID)
	}
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := r.readDim(tx, namespace)
		if err != nil {
			return err
		}
		if dim == 0 {
			// First vector in this namespace pins the dimension.
			if err := tx.Set(makeVectorDimKey(namespace), storage.MarshalID(core.ID(len(vector)))); err != nil {
				return err
			}
		} else if dim != len(vector) {
			return fmt.Errorf("%w: namespace %q holds %d-dimensional vectors, got %d",
				storage.ErrDimensionMismatch, namespace, dim, len(vector))
		}

		if err := tx.Set(makeVectorKey(namespace, articleID), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetAll returns all persisted vectors in a namespace.
// Records that cannot be decoded are skipped with a warning.
func (r *VectorRepository) GetAll(ctx context.Context, namespace string) ([]storage.VectorEntry, error) {
	var results []storage.VectorEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := r.readDim(tx, namespace)
		if err != nil {
			return err
		}
		if dim == 0 {
			return nil
		}

		return r.scanNamespace(tx, namespace, dim, func(articleID core.ID, vector []float32) {
			results = append(results, storage.VectorEntry{ArticleId: articleID, Vector: vector})
		})
	}, false)
	return results, err
}

// Search computes cosine similarity between the query vector and every stored
// vector in the namespace, returning the topK matches by descending score.
// Ties are broken by ascending article ID.
func (r *VectorRepository) Search(ctx context.Context, query []float32, topK int, namespace string) ([]*core.SimilarityMatch, error) {
	matches := []*core.SimilarityMatch{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := r.readDim(tx, namespace)
		if err != nil {
			return err
		}
		if dim == 0 {
			// Nothing stored in this namespace.
			return nil
		}
		if len(query) != dim {
			return fmt.Errorf("%w: query has %d dimensions, namespace %q holds %d",
				storage.ErrDimensionMismatch, len(query), namespace, dim)
		}

		return r.scanNamespace(tx, namespace, dim, func(articleID core.ID, vector []float32) {
			matches = append(matches, &core.SimilarityMatch{
				ArticleId: articleID,
				Score:     cosineSimilarity(query, vector),
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ArticleId < matches[j].ArticleId
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Dim reports the dimension pinned for a namespace.
func (r *VectorRepository) Dim(ctx context.Context, namespace string) (int, error) {
	var dim int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = r.readDim(tx, namespace)
		if err != nil {
			return err
		}
		if dim == 0 {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return dim, err
}

// Helper methods

// readDim reads the pinned dimension for a namespace.
// Returns 0, nil when the namespace holds no vectors yet.
func (r *VectorRepository) readDim(tx *badger.Txn, namespace string) (int, error) {
	id, err := readIndexedID(tx, makeVectorDimKey(namespace))
	return int(id), err
}

// scanNamespace iterates over every vector record in a namespace, decoding
// each against the pinned dimension. Undecodable records are skipped with
// a warning.
func (r *VectorRepository) scanNamespace(tx *badger.Txn, namespace string, dim int, visit func(core.ID, []float32)) error {
	prefix := makeVectorNamespacePrefix(namespace)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		articleID, err := parseVectorKeyID(item.Key(), prefix)
		if err != nil {
			r.backend.logger.Warn("skipping vector record with unreadable key",
				"key", string(item.Key()), "err", err)
			continue
		}

		var vector []float32
		err = item.Value(func(val []byte) error {
			var decodeErr error
			vector, decodeErr = storage.UnmarshalVector(val, dim)
			return decodeErr
		})
		if err != nil {
			if errors.Is(err, storage.ErrMalformedRecord) {
				r.backend.logger.Warn("skipping undecodable vector record",
					"key", string(item.Key()), "err", err)
				continue
			}
			return err
		}

		visit(articleID, vector)
	}
	return nil
}

// parseVectorKeyID extracts the article ID from a vector key.
func parseVectorKeyID(key, prefix []byte) (core.ID, error) {
	var id uint64
	if _, err := fmt.Sscanf(string(key[len(prefix):]), "%d", &id); err != nil {
		return 0, err
	}
	return core.ID(id), nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero-norm vectors produce a score of 0, never NaN.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom < similarityEpsilon {
		return 0
	}
	return float32(dot / denom)
}
