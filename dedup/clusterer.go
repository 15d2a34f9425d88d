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


// Package dedup groups near-duplicate articles into stories.
//
// Clustering is threshold-based connected components over a pairwise
// similarity matrix: two articles are connected when their similarity meets
// the threshold, and each connected component becomes one story. The result
// is a partition of the input, deterministic for a given input order.
package dedup

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/finsight/newsdesk/core"
	"github.com/panjf2000/ants/v2"
)

// Item is one clustering input. Vector carries the article's embedding when
// one exists; Text is the lexical fallback used when any item in the batch
// has no vector.
type Item struct {
	Vector []float32
	Text   string
}

// Clusterer computes similarity matrices and groups items into stories.
type Clusterer struct {
	threshold float32
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Clusterer.
type Option func(*Clusterer) error

// WithPoolSize sets the worker pool size for matrix computation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Clusterer) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClusterer creates a clusterer with the given similarity threshold.
// The threshold must be in [0, 1]; at 0 every pair with non-negative
// similarity connects (cosine can go negative).
func NewClusterer(threshold float32, opts ...Option) (*Clusterer, error) {
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Clusterer{
		threshold: threshold,
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	return c, nil
}

// Release releases the worker pool.
// The clusterer should not be used after calling Release.
func (c *Clusterer) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Matrix computes the full symmetric pairwise similarity matrix.
// Cosine similarity is used when every item carries a vector; if any item
// lacks one, the whole batch falls back to lexical token overlap so all
// scores stay comparable.
func (c *Clusterer) Matrix(items []Item) ([][]float32, error) {
	n := len(items)
	matrix := make([][]float32, n)
	for i := range matrix {
		matrix[i] = make([]float32, n)
		matrix[i][i] = 1
	}
	if n < 2 {
		return matrix, nil
	}

	useVectors := true
	for _, item := range items {
		if len(item.Vector) == 0 {
			useVectors = false
			break
		}
	}
	if !useVectors {
		c.logger.Debug("not all items carry vectors, using lexical similarity", "count", n)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			for j := i + 1; j < n; j++ {
				var score float32
				if useVectors {
					var err error
					score, err = CosineSimilarity(items[i].Vector, items[j].Vector)
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						return
					}
				} else {
					score = TokenOverlap(items[i].Text, items[j].Text)
				}
				matrix[i][j] = score
				matrix[j][i] = score
			}
		}); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return matrix, nil
}

// Labels partitions items into connected components over the similarity
// matrix. Two items are connected when their similarity meets the threshold.
// Components are numbered from 0 in order of their first member's index, so
// the labeling is deterministic for a given input order.
func (c *Clusterer) Labels(items []Item) ([]int, error) {
	matrix, err := c.Matrix(items)
	if err != nil {
		return nil, err
	}

	n := len(items)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != -1 {
			continue
		}
		// Flood the component reachable from i.
		stack := []int{i}
		labels[i] = next
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for j := 0; j < n; j++ {
				if labels[j] == -1 && matrix[cur][j] >= c.threshold {
					labels[j] = next
					stack = append(stack, j)
				}
			}
		}
		next++
	}
	return labels, nil
}

// Deduplicate clusters articles into stories. The vectors map supplies
// embeddings by article ID; articles without an entry fall back to lexical
// similarity for the whole batch. Every article lands in exactly one story.
// The representative is the member with the longest title+content, ties
// going to the lowest article ID.
func (c *Clusterer) Deduplicate(articles []*core.Article, vectors map[core.ID][]float32) ([]*core.Story, error) {
	if len(articles) == 0 {
		return []*core.Story{}, nil
	}

	items := make([]Item, len(articles))
	for i, article := range articles {
		items[i] = Item{
			Vector: vectors[article.Id],
			Text:   article.EmbeddingText(),
		}
	}

	labels, err := c.Labels(items)
	if err != nil {
		return nil, err
	}

	// Group members per label. Labels are dense and ordered by first
	// appearance, so indexing by label keeps story order stable.
	groupCount := 0
	for _, label := range labels {
		if label+1 > groupCount {
			groupCount = label + 1
		}
	}
	groups := make([][]*core.Article, groupCount)
	for i, label := range labels {
		groups[label] = append(groups[label], articles[i])
	}

	stories := make([]*core.Story, groupCount)
	for label, members := range groups {
		memberIds := make([]core.ID, len(members))
		for i, member := range members {
			memberIds[i] = member.Id
		}
		sort.Slice(memberIds, func(i, j int) bool { return memberIds[i] < memberIds[j] })

		stories[label] = &core.Story{
			Id:               core.ID(label + 1),
			RepresentativeId: pickRepresentative(members),
			MemberIds:        memberIds,
		}
	}

	c.logger.Info("deduplicated articles into stories",
		"articles", len(articles), "stories", len(stories))
	return stories, nil
}

// pickRepresentative selects the member with the most title+content text,
// breaking ties by the lowest article ID.
func pickRepresentative(members []*core.Article) core.ID {
	best := members[0]
	bestLen := len(best.Title) + len(best.Content)
	for _, member := range members[1:] {
		l := len(member.Title) + len(member.Content)
		if l > bestLen || (l == bestLen && member.Id < best.Id) {
			best = member
			bestLen = l
		}
	}
	return best.Id
}
