// Copyright 2025 Finsight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package newsdesk is a news retrieval and deduplication engine.
//
// The Engine facade wires the storage repositories, the embedding backend,
// the clusterer and the query coordinator together and exposes the boundary
// operations a host process calls: ingest, deduplicate, query, semantic
// search and lookups. Entity extraction and the lexicon are supplied by the
// host; the engine never defines them.
package newsdesk

import (
	"context"
	"log/slog"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/dedup"
	"github.com/finsight/newsdesk/embed"
	"github.com/finsight/newsdesk/embed/lexical"
	"github.com/finsight/newsdesk/embed/openai"
	"github.com/finsight/newsdesk/impact"
	"github.com/finsight/newsdesk/ingestion"
	"github.com/finsight/newsdesk/query"
	"github.com/finsight/newsdesk/storage"
	"github.com/finsight/newsdesk/storage/badger"
)

// DefaultSimilarityThreshold is the clustering threshold used when the host
// doesn't configure one.
const DefaultSimilarityThreshold float32 = 0.82

// Engine bundles the repositories and domain components behind the boundary
// operations. An empty filePath opens an in-memory store.
type Engine struct {
	repos       *badger.Repos
	embedder    embed.Embedder
	clusterer   *dedup.Clusterer
	pipeline    *ingestion.Pipeline
	coordinator *query.Coordinator
	interpreter *query.Interpreter
	namespace   string
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedConfig *embed.Config
	embedder    embed.Embedder
	lexicon     *query.Lexicon
	threshold   float32
	namespace   string
	extract     ingestion.ExtractFunc
	tables      *impact.Tables
	logger      *slog.Logger
}

// WithEmbedConfig configures the pretrained embedding service. Ignored when
// WithEmbedder is also given.
func WithEmbedConfig(cfg *embed.Config) EngineOption {
	return func(o *engineOptions) {
		o.embedConfig = cfg
	}
}

// WithEmbedder injects a fully constructed embedder, bypassing the default
// pretrained-plus-lexical fallback pair.
func WithEmbedder(e embed.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = e
	}
}

// WithLexicon supplies the host's company→sector map and regulator list.
func WithLexicon(lexicon *query.Lexicon) EngineOption {
	return func(o *engineOptions) {
		o.lexicon = lexicon
	}
}

// WithSimilarityThreshold sets the clustering threshold in [0, 1].
func WithSimilarityThreshold(threshold float32) EngineOption {
	return func(o *engineOptions) {
		o.threshold = threshold
	}
}

// WithNamespace sets the vector index namespace for ingestion and search.
func WithNamespace(namespace string) EngineOption {
	return func(o *engineOptions) {
		o.namespace = namespace
	}
}

// WithExtractFunc installs the host's entity extraction hook.
func WithExtractFunc(fn ingestion.ExtractFunc) EngineOption {
	return func(o *engineOptions) {
		o.extract = fn
	}
}

// WithImpactTables supplies the entity→symbol mapping for impact analysis.
// Without this option the built-in DefaultTables are used.
func WithImpactTables(tables *impact.Tables) EngineOption {
	return func(o *engineOptions) {
		o.tables = tables
	}
}

// WithEngineLogger sets the logger used by the engine and its components.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the store at filePath (in-memory when empty) and wires the
// engine's components. The default embedder is the pretrained backend
// wrapped in a lexical fallback; queries and dedup keep working when the
// embedding service is down.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		embedConfig: embed.DefaultConfig(),
		lexicon:     &query.Lexicon{CompanySectors: map[string]string{}},
		threshold:   DefaultSimilarityThreshold,
		namespace:   core.DefaultNamespace,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.OpenRepos(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		primary, err := openai.NewEmbedder(options.embedConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
		embedder = embed.NewFallback(primary, lexical.NewEmbedder(),
			embed.WithLogger(options.logger))
	}

	clusterer, err := dedup.NewClusterer(options.threshold,
		dedup.WithLogger(options.logger))
	if err != nil {
		repos.Close()
		return nil, err
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithNamespace(options.namespace),
		ingestion.WithLogger(options.logger),
		ingestion.WithImpactAnalyzer(impact.NewAnalyzer(options.tables), repos.Impacts),
	}
	if options.extract != nil {
		pipelineOpts = append(pipelineOpts,
			ingestion.WithExtractFunc(options.extract, repos.Entities))
	}
	pipeline, err := ingestion.NewPipeline(repos.Articles, repos.Vectors, embedder, pipelineOpts...)
	if err != nil {
		clusterer.Release()
		repos.Close()
		return nil, err
	}

	interpreter, err := query.NewInterpreter(options.lexicon)
	if err != nil {
		pipeline.Release()
		clusterer.Release()
		repos.Close()
		return nil, err
	}

	coordinator, err := query.NewCoordinator(
		repos.Articles, repos.Vectors, repos.Entities, embedder, interpreter,
		query.WithNamespace(options.namespace),
		query.WithLogger(options.logger),
	)
	if err != nil {
		pipeline.Release()
		clusterer.Release()
		repos.Close()
		return nil, err
	}

	return &Engine{
		repos:       repos,
		embedder:    embedder,
		clusterer:   clusterer,
		pipeline:    pipeline,
		coordinator: coordinator,
		interpreter: interpreter,
		namespace:   options.namespace,
		logger:      options.logger,
	}, nil
}

// Close releases the engine's components and the underlying store.
func (e *Engine) Close() error {
	e.pipeline.Release()
	e.clusterer.Release()
	return e.repos.Close()
}

// Ingest persists articles with their embeddings, entity tags and impact
// reports, returning them with IDs populated.
func (e *Engine) Ingest(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	return e.pipeline.Ingest(ctx, articles...)
}

// DeduplicateAll clusters every stored article into stories and replaces the
// persisted story set. An empty store yields an empty slice.
func (e *Engine) DeduplicateAll(ctx context.Context) ([]*core.Story, error) {
	articles, err := e.repos.Articles.GetAllArticles(ctx)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return []*core.Story{}, nil
	}

	entries, err := e.repos.Vectors.GetAll(ctx, e.namespace)
	if err != nil {
		return nil, err
	}
	vectors := make(map[core.ID][]float32, len(entries))
	for _, entry := range entries {
		vectors[entry.ArticleId] = entry.Vector
	}

	stories, err := e.clusterer.Deduplicate(articles, vectors)
	if err != nil {
		return nil, err
	}
	if err := e.repos.Stories.ReplaceStories(ctx, stories...); err != nil {
		return nil, err
	}
	return stories, nil
}

// Query runs the full retrieval flow for a free-text query.
func (e *Engine) Query(ctx context.Context, text string, searchK int) (*core.QueryResult, error) {
	return e.coordinator.Query(ctx, text, searchK)
}

// QueryWithMonitor runs retrieval with stage callbacks.
func (e *Engine) QueryWithMonitor(ctx context.Context, text string, searchK int, monitor query.Monitor) (*core.QueryResult, error) {
	return e.coordinator.QueryWithMonitor(ctx, text, searchK, monitor)
}

// SearchSemantic ranks stored articles purely by vector similarity to the
// text, without interpretation or filtering.
func (e *Engine) SearchSemantic(ctx context.Context, text string, searchK int) ([]*core.SimilarityMatch, error) {
	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return e.repos.Vectors.Search(ctx, vector, searchK, e.namespace)
}

// GetArticle retrieves an article by ID.
// Returns storage.ErrNotFound if it doesn't exist.
func (e *Engine) GetArticle(ctx context.Context, id core.ID) (*core.Article, error) {
	return e.repos.Articles.GetArticle(ctx, id)
}

// GetStories returns the persisted story set from the last clustering run.
func (e *Engine) GetStories(ctx context.Context) ([]*core.Story, error) {
	return e.repos.Stories.GetAllStories(ctx)
}

// GetStoryForArticle returns the story an article belongs to.
func (e *Engine) GetStoryForArticle(ctx context.Context, id core.ID) (*core.Story, error) {
	return e.repos.Stories.GetStoryForArticle(ctx, id)
}

// GetImpactReport returns the stock impact report derived for an article.
func (e *Engine) GetImpactReport(ctx context.Context, id core.ID) (*core.ImpactReport, error) {
	return e.repos.Impacts.GetImpactReport(ctx, id)
}

// Reindex re-embeds every article with the current embedder into the given
// namespace (the engine's own when empty), returning the article count.
func (e *Engine) Reindex(ctx context.Context, namespace string) (int, error) {
	return e.pipeline.Reindex(ctx, namespace)
}

// ArticleRepository exposes the underlying article store.
func (e *Engine) ArticleRepository() storage.ArticleRepository {
	return e.repos.Articles
}

// VectorRepository exposes the underlying vector index.
func (e *Engine) VectorRepository() storage.VectorRepository {
	return e.repos.Vectors
}
