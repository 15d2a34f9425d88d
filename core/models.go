package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultNamespace is the vector index partition used for sentence
// embeddings unless the host configures another one.
const DefaultNamespace = "sent-emb"

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// QueryType classifies a free-text query by the strongest entity class it mentions.
type QueryType int

const (
	// QueryTypeCompany indicates the query names at least one known company.
	QueryTypeCompany QueryType = iota + 1
	// QueryTypeSector indicates the query names a sector but no company.
	QueryTypeSector
	// QueryTypeRegulator indicates the query names a regulator but no company or sector.
	QueryTypeRegulator
	// QueryTypeTheme indicates no known entity matched; ranking is purely semantic.
	QueryTypeTheme
)

// String returns the lowercase name of the query type.
func (t QueryType) String() string {
	switch t {
	case QueryTypeCompany:
		return "company"
	case QueryTypeSector:
		return "sector"
	case QueryTypeRegulator:
		return "regulator"
	case QueryTypeTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// Article is one ingested news record. Articles are immutable once stored
// except for replacement via upsert keyed by Id.
type Article struct {
	Id         ID
	Title      string
	Content    string
	Date       string
	Source     string
	InsertedAt time.Time // When the record was inserted into the database
	UpdatedAt  time.Time // When the record was last replaced
}

// Fingerprint returns the content fingerprint used for exact-duplicate
// detection on ingest. Identical title+content always hashes to the same value.
func (a *Article) Fingerprint() ID {
	return IDFromContent(a.Title + "\n" + a.Content)
}

// EmbeddingText returns the text that is encoded for this article.
func (a *Article) EmbeddingText() string {
	return strings.TrimSpace(strings.TrimSpace(a.Title) + " . " + strings.TrimSpace(a.Content))
}

// Story is a cluster of near-duplicate articles represented by one canonical member.
// After a clustering run every article belongs to exactly one story.
type Story struct {
	Id               ID
	RepresentativeId ID
	MemberIds        []ID
}

// EntityTags holds the entity annotations for one article. Tags are produced
// and owned by the external entity-extraction collaborator; the engine only
// reads them.
type EntityTags struct {
	ArticleId  ID
	Companies  []string
	Sectors    []string
	Regulators []string
}

// QueryIntent is the structured interpretation of a free-text query.
// It is transient and never persisted.
type QueryIntent struct {
	Type       QueryType
	Companies  []string
	Sectors    []string
	Regulators []string
}

// SimilarityMatch represents an article match from vector similarity search.
type SimilarityMatch struct {
	ArticleId ID
	Score     float32
}

// RankedArticle is one retrieval result with its semantic score and a
// human-readable explanation of why it survived the structured filter.
type RankedArticle struct {
	Article     *Article
	Score       float32
	Explanation string
}

// QueryResult bundles the query interpretation with the ranked results.
// An empty Results slice is a valid outcome, distinct from a query error.
type QueryResult struct {
	Interpretation *QueryIntent
	Results        []*RankedArticle
}

// ImpactedStock maps one entity mention to a stock symbol with a confidence score.
type ImpactedStock struct {
	Symbol     string
	Confidence float32
	Kind       string // "direct", "sector" or "regulatory"
	Trigger    string // the entity name that produced this impact
}

// ImpactReport lists the stocks impacted by one article's entity tags.
type ImpactReport struct {
	ArticleId ID
	Stocks    []ImpactedStock
}
