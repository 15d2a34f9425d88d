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


package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/embed"
	"github.com/finsight/newsdesk/storage"
)

// DefaultSearchK is the candidate count requested from the vector index when
// the caller passes k <= 0.
const DefaultSearchK = 10

// themeScoreFloor is the minimum semantic score a candidate needs to survive
// a theme query, where no entity filter applies.
const themeScoreFloor = 0.50

// Coordinator runs the full retrieval flow: interpret the query, search the
// vector index, hydrate candidates with their articles and entity tags,
// apply the structured filter for the query type, and rank what survives.
type Coordinator struct {
	articles    storage.ArticleRepository
	vectors     storage.VectorRepository
	entities    storage.EntityRepository
	embedder    embed.Embedder
	interpreter *Interpreter
	namespace   string
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithNamespace sets the vector index namespace to search.
// Default is core.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(c *Coordinator) error {
		if namespace != "" {
			c.namespace = namespace
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a new retrieval coordinator.
func NewCoordinator(
	articles storage.ArticleRepository,
	vectors storage.VectorRepository,
	entities storage.EntityRepository,
	embedder embed.Embedder,
	interpreter *Interpreter,
	opts ...Option,
) (*Coordinator, error) {
	if articles == nil {
		return nil, ErrArticleRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if interpreter == nil {
		return nil, ErrInterpreterRequired
	}

	c := &Coordinator{
		articles:    articles,
		vectors:     vectors,
		entities:    entities,
		embedder:    embedder,
		interpreter: interpreter,
		namespace:   core.DefaultNamespace,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Query runs retrieval for the given text, returning up to searchK ranked
// candidates. An empty result set is a valid outcome; storage and embedding
// failures propagate as errors, never as empty results.
func (c *Coordinator) Query(ctx context.Context, text string, searchK int) (*core.QueryResult, error) {
	return c.QueryWithMonitor(ctx, text, searchK, nil)
}

// QueryWithMonitor runs retrieval with stage callbacks.
func (c *Coordinator) QueryWithMonitor(ctx context.Context, text string, searchK int, monitor Monitor) (*core.QueryResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if searchK <= 0 {
		searchK = DefaultSearchK
	}

	monitor.Start(text)

	// 1. Interpret the query
	intent := c.interpreter.Interpret(text)
	monitor.AfterInterpretation(intent)

	// 2. Semantic candidate search
	queryVector, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		c.logger.Error("error generating embedding for query", "query", text, "err", err)
		return nil, err
	}

	matches, err := c.vectors.Search(ctx, queryVector, searchK, c.namespace)
	if err != nil {
		c.logger.Error("error searching vector index", "namespace", c.namespace, "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	// 3-4. Hydrate and filter candidates
	results := []*core.RankedArticle{}
	for _, match := range matches {
		article, err := c.articles.GetArticle(ctx, match.ArticleId)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Dangling vector, the article row is gone.
				c.logger.Warn("vector match has no article row", "id", match.ArticleId)
				continue
			}
			return nil, err
		}

		tags, err := c.entities.GetEntityTags(ctx, match.ArticleId)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			tags = &core.EntityTags{ArticleId: match.ArticleId}
		}

		keep, explanation := c.applyFilter(intent, tags, match.Score)
		if !keep {
			monitor.CandidateDropped(article, match.Score)
			continue
		}
		monitor.CandidateKept(article, match.Score)

		results = append(results, &core.RankedArticle{
			Article:     article,
			Score:       match.Score,
			Explanation: explanation,
		})
	}

	// 5. Rank survivors
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Article.Id < results[j].Article.Id
	})

	result := &core.QueryResult{
		Interpretation: intent,
		Results:        results,
	}
	monitor.Finish(result)
	return result, nil
}

// applyFilter decides whether a candidate survives the structured filter for
// the query type, and builds the explanation string for survivors.
func (c *Coordinator) applyFilter(intent *core.QueryIntent, tags *core.EntityTags, score float32) (bool, string) {
	switch intent.Type {
	case core.QueryTypeCompany:
		// A company query also admits sector-adjacent coverage.
		if hit := intersect(tags.Companies, intent.Companies); len(hit) > 0 {
			return true, "matches company " + strings.Join(hit, ", ")
		}
		if hit := intersect(tags.Sectors, intent.Sectors); len(hit) > 0 {
			return true, "sector-adjacent via " + strings.Join(hit, ", ")
		}
		return false, ""

	case core.QueryTypeSector:
		if hit := intersect(tags.Sectors, intent.Sectors); len(hit) > 0 {
			return true, "matches sector " + strings.Join(hit, ", ")
		}
		return false, ""

	case core.QueryTypeRegulator:
		if hit := intersect(tags.Regulators, intent.Regulators); len(hit) > 0 {
			return true, "mentions regulator " + strings.Join(hit, ", ")
		}
		return false, ""

	default:
		if score > themeScoreFloor {
			return true, fmt.Sprintf("semantically similar to the query (score %.2f)", score)
		}
		return false, ""
	}
}

// intersect returns the elements of candidates that appear in wanted,
// compared case-insensitively, in candidate order.
func intersect(candidates, wanted []string) []string {
	if len(candidates) == 0 || len(wanted) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[strings.ToLower(w)] = struct{}{}
	}
	var hit []string
	for _, cand := range candidates {
		if _, ok := set[strings.ToLower(cand)]; ok {
			hit = append(hit, cand)
		}
	}
	return hit
}
