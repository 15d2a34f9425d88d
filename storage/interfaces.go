package storage

import (
	"context"

	"github.com/finsight/newsdesk/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// ArticleRepository provides operations for managing article records.
type ArticleRepository interface {
	Repository

	// UpsertArticles inserts or replaces one or more articles.
	// For articles with ID=0, an ID is assigned: if an article with an
	// identical content fingerprint already exists its ID is reused
	// (exact-duplicate short circuit), otherwise a new ID comes from the
	// sequence. Sets InsertedAt on first insert and UpdatedAt always.
	// Returns the articles with IDs and timestamps populated.
	UpsertArticles(ctx context.Context, articles ...*core.Article) ([]*core.Article, error)

	// GetArticle retrieves a single article by ID.
	// Returns ErrNotFound if the article doesn't exist.
	GetArticle(ctx context.Context, id core.ID) (*core.Article, error)

	// GetArticles retrieves multiple articles by their IDs.
	// Returns only the articles that exist (no error for missing articles).
	GetArticles(ctx context.Context, ids ...core.ID) ([]*core.Article, error)

	// GetAllArticles retrieves every stored article, in unspecified order.
	// Records that cannot be decoded are skipped with a warning.
	GetAllArticles(ctx context.Context) ([]*core.Article, error)

	// DeleteArticles removes articles by their IDs, together with their
	// fingerprint index entries.
	// Returns ErrNotFound if any article doesn't exist.
	DeleteArticles(ctx context.Context, ids ...core.ID) error
}

// VectorEntry pairs an article ID with its stored embedding vector.
type VectorEntry struct {
	ArticleId core.ID
	Vector    []float32
}

// VectorRepository provides the durable vector index. Vectors are partitioned
// by namespace; all vectors within one namespace share the same dimension.
type VectorRepository interface {
	Repository

	// Put stores the vector for (articleID, namespace) with overwrite
	// semantics. The first write to a namespace pins its dimension; a later
	// write with a different dimension fails with ErrDimensionMismatch.
	Put(ctx context.Context, articleID core.ID, vector []float32, namespace string) error

	// GetAll returns all persisted vectors in a namespace, in unspecified
	// order. Vectors that cannot be decoded are skipped with a warning.
	// An unknown namespace yields an empty slice, not an error.
	GetAll(ctx context.Context, namespace string) ([]VectorEntry, error)

	// Search computes cosine similarity between the query vector and every
	// stored vector in the namespace, returning the topK matches by
	// descending score (ties broken by ascending article ID). Zero-norm
	// vectors produce finite scores, never NaN. An empty namespace yields an
	// empty slice without error; a query whose dimension disagrees with the
	// namespace fails with ErrDimensionMismatch.
	Search(ctx context.Context, query []float32, topK int, namespace string) ([]*core.SimilarityMatch, error)

	// Dim reports the dimension pinned for a namespace.
	// Returns ErrNotFound if the namespace holds no vectors yet.
	Dim(ctx context.Context, namespace string) (int, error)
}

// StoryRepository provides operations for deduplicated story groups.
// A clustering run replaces the full story set atomically.
type StoryRepository interface {
	Repository

	// ReplaceStories deletes every existing story and writes the given set
	// in one transaction.
	ReplaceStories(ctx context.Context, stories ...*core.Story) error

	// GetStory retrieves a single story by ID.
	// Returns ErrNotFound if the story doesn't exist.
	GetStory(ctx context.Context, id core.ID) (*core.Story, error)

	// GetAllStories retrieves every stored story, ordered by ascending story ID.
	GetAllStories(ctx context.Context) ([]*core.Story, error)

	// GetStoryForArticle retrieves the story an article belongs to.
	// Returns ErrNotFound if the article is not a member of any story.
	GetStoryForArticle(ctx context.Context, articleID core.ID) (*core.Story, error)
}

// EntityRepository stores the entity tags produced by the external
// entity-extraction collaborator. The engine only ever reads them.
type EntityRepository interface {
	Repository

	// PutEntityTags stores the tags for an article with overwrite semantics.
	PutEntityTags(ctx context.Context, tags *core.EntityTags) error

	// GetEntityTags retrieves the tags for an article.
	// Returns ErrNotFound if the article has no tags.
	GetEntityTags(ctx context.Context, articleID core.ID) (*core.EntityTags, error)
}

// ImpactRepository stores derived stock impact reports.
type ImpactRepository interface {
	Repository

	// PutImpactReport stores the report for an article with overwrite semantics.
	PutImpactReport(ctx context.Context, report *core.ImpactReport) error

	// GetImpactReport retrieves the report for an article.
	// Returns ErrNotFound if the article has no report.
	GetImpactReport(ctx context.Context, articleID core.ID) (*core.ImpactReport, error)
}
