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


// Package ingestion persists articles and their derived data: embeddings,
// entity tags and stock impact reports.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/embed"
	"github.com/finsight/newsdesk/impact"
	"github.com/finsight/newsdesk/storage"
	"github.com/panjf2000/ants/v2"
)

// defaultChunkSize is the number of texts sent to the embedder per batch call.
const defaultChunkSize = 16

// ExtractFunc produces entity tags for an article. It is supplied by the
// host's extraction collaborator; the engine never defines one.
type ExtractFunc func(article *core.Article) (*core.EntityTags, error)

// Pipeline orchestrates article ingestion: upsert the article rows, embed
// their text, persist the vectors, then derive entity tags and impact
// reports when configured. The article row is always committed before its
// vector.
type Pipeline struct {
	articles storage.ArticleRepository
	vectors  storage.VectorRepository
	entities storage.EntityRepository
	impacts  storage.ImpactRepository
	embedder embed.Embedder
	analyzer *impact.Analyzer
	extract  ExtractFunc

	pool      *ants.Pool
	namespace string
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for embedding chunks.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithNamespace sets the vector index namespace written by ingestion.
// Default is core.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace != "" {
			p.namespace = namespace
		}
		return nil
	}
}

// WithChunkSize sets how many texts go into one embedding batch call.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		return nil
	}
}

// WithExtractFunc installs the host's entity extraction hook. Tags are
// persisted through the entity repository, which must also be configured.
func WithExtractFunc(fn ExtractFunc, entities storage.EntityRepository) Option {
	return func(p *Pipeline) error {
		p.extract = fn
		p.entities = entities
		return nil
	}
}

// WithImpactAnalyzer installs stock impact derivation for tagged articles.
// Reports are persisted through the impact repository.
func WithImpactAnalyzer(analyzer *impact.Analyzer, impacts storage.ImpactRepository) Option {
	return func(p *Pipeline) error {
		p.analyzer = analyzer
		p.impacts = impacts
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	articles storage.ArticleRepository,
	vectors storage.VectorRepository,
	embedder embed.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if articles == nil {
		return nil, ErrArticleRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		articles:  articles,
		vectors:   vectors,
		embedder:  embedder,
		pool:      pool,
		namespace: core.DefaultNamespace,
		chunkSize: defaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Ingest validates and persists the articles, embeds their text, stores the
// vectors and derives tags and impact reports when configured. Returns the
// articles with IDs and timestamps populated.
func (p *Pipeline) Ingest(ctx context.Context, articles ...*core.Article) ([]*core.Article, error) {
	if len(articles) == 0 {
		return []*core.Article{}, nil
	}

	for _, article := range articles {
		if err := core.ValidateArticle(article); err != nil {
			return nil, err
		}
	}

	added, err := p.articles.UpsertArticles(ctx, articles...)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(added))
	for i, article := range added {
		texts[i] = article.EmbeddingText()
	}
	if err := p.ensureFitted(ctx, texts); err != nil {
		return nil, err
	}

	vectors, err := p.embedChunked(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, article := range added {
		if err := p.vectors.Put(ctx, article.Id, vectors[i], p.namespace); err != nil {
			return nil, fmt.Errorf("storing vector for article %d: %w", article.Id, err)
		}
	}

	if p.extract != nil {
		if err := p.deriveTags(ctx, added); err != nil {
			return nil, err
		}
	}

	p.logger.Info("ingested articles", "count", len(added), "namespace", p.namespace)
	return added, nil
}

// Reindex re-embeds every stored article with the current embedder and
// rewrites its vector in the given namespace. Use a fresh namespace when the
// active embedder's dimension differs from the one already pinned.
func (p *Pipeline) Reindex(ctx context.Context, namespace string) (int, error) {
	if namespace == "" {
		namespace = p.namespace
	}

	all, err := p.articles.GetAllArticles(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	texts := make([]string, len(all))
	for i, article := range all {
		texts[i] = article.EmbeddingText()
	}
	if err := p.ensureFitted(ctx, texts); err != nil {
		return 0, err
	}

	vectors, err := p.embedChunked(ctx, texts)
	if err != nil {
		return 0, err
	}
	for i, article := range all {
		if err := p.vectors.Put(ctx, article.Id, vectors[i], namespace); err != nil {
			return 0, fmt.Errorf("storing vector for article %d: %w", article.Id, err)
		}
	}

	p.logger.Info("reindexed articles", "count", len(all), "namespace", namespace)
	return len(all), nil
}

// ensureFitted fits a corpus-derived embedder before its first use. The
// corpus is every stored article plus the batch in flight.
func (p *Pipeline) ensureFitted(ctx context.Context, batchTexts []string) error {
	fitter := corpusFitter(p.embedder)
	if fitter == nil || fitter.Ready() {
		return nil
	}

	stored, err := p.articles.GetAllArticles(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(stored)+len(batchTexts))
	corpus := make([]string, 0, len(stored)+len(batchTexts))
	for _, article := range stored {
		text := article.EmbeddingText()
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		corpus = append(corpus, text)
	}
	for _, text := range batchTexts {
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		corpus = append(corpus, text)
	}

	p.logger.Info("fitting lexical embedder", "corpus", len(corpus))
	return fitter.Fit(corpus)
}

// corpusFitter unwraps the embedder to find a fittable model, looking through
// a Fallback wrapper when present.
func corpusFitter(e embed.Embedder) embed.CorpusFitter {
	if fitter, ok := e.(embed.CorpusFitter); ok {
		return fitter
	}
	if fallback, ok := e.(*embed.Fallback); ok {
		if fitter, ok := fallback.Secondary().(embed.CorpusFitter); ok {
			return fitter
		}
	}
	return nil
}

// embedChunked embeds texts in chunks across the worker pool, preserving
// input order.
func (p *Pipeline) embedChunked(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += p.chunkSize {
		start := start
		end := start + p.chunkSize
		if end > len(texts) {
			end = len(texts)
		}

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			chunk, err := p.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:end], chunk)
		}); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// deriveTags runs the extraction hook per article and persists tags and,
// when an analyzer is configured, impact reports. A failing hook is logged
// and skipped; extraction quality is the collaborator's concern, not a
// reason to abort ingestion.
func (p *Pipeline) deriveTags(ctx context.Context, articles []*core.Article) error {
	for _, article := range articles {
		tags, err := p.extract(article)
		if err != nil {
			p.logger.Warn("entity extraction failed", "id", article.Id, "err", err)
			continue
		}
		if tags == nil {
			continue
		}
		tags.ArticleId = article.Id

		if p.entities != nil {
			if err := p.entities.PutEntityTags(ctx, tags); err != nil {
				return err
			}
		}
		if p.analyzer != nil && p.impacts != nil {
			if err := p.impacts.PutImpactReport(ctx, p.analyzer.Analyze(tags)); err != nil {
				return err
			}
		}
	}
	return nil
}
