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


// Package lexical provides a self-contained TF-IDF embedder fitted on the
// local article corpus. It needs no external service and serves as the
// fallback when the pretrained embedding backend is unavailable.
package lexical

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/finsight/newsdesk/embed"
)

// DefaultMaxFeatures caps the vocabulary size, and with it the embedding
// dimension, when no explicit cap is configured.
const DefaultMaxFeatures = 256

var (
	// ErrEmptyCorpus indicates Fit was called with no documents.
	ErrEmptyCorpus = errors.New("empty corpus for lexical fit")

	// ErrNotFitted indicates the embedder was asked to embed before Fit.
	ErrNotFitted = errors.New("lexical embedder not fitted")
)

// Embedder is a TF-IDF vectorizer over a corpus-derived vocabulary.
//
// The vocabulary holds at most maxFeatures terms, chosen by descending
// document frequency with alphabetical tie-breaks, and is indexed
// alphabetically so identical corpora always yield identical vector layouts.
// Vectors are L2-normalized and always maxFeatures wide, so the dimension is
// fixed before and after fitting. All model state lives on the instance.
type Embedder struct {
	maxFeatures  int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}

	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	fitted     bool
}

var (
	_ embed.Embedder     = (*Embedder)(nil)
	_ embed.CorpusFitter = (*Embedder)(nil)
)

// Option configures an Embedder.
type Option func(*Embedder)

// WithMaxFeatures sets the vocabulary cap. Values below 1 keep the default.
func WithMaxFeatures(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.maxFeatures = n
		}
	}
}

// NewEmbedder creates an unfitted lexical embedder.
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{
		maxFeatures:  DefaultMaxFeatures,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
		vocabulary:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit builds the vocabulary and IDF values from the provided corpus,
// replacing any prior model state.
func (e *Embedder) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}

	// Document frequencies over non-stopword tokens.
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}

	// Keep the maxFeatures most frequent terms, breaking frequency ties
	// alphabetically.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}

	// Index the surviving terms alphabetically for a stable vector layout.
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocabulary[term] = i
		// Smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	e.mu.Lock()
	e.vocabulary = vocabulary
	e.idf = idf
	e.fitted = true
	e.mu.Unlock()
	return nil
}

// Ready reports whether the model has been fitted.
func (e *Embedder) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fitted
}

// Dim reports the embedding dimension, which equals the vocabulary cap both
// before and after fitting.
func (e *Embedder) Dim() int {
	return e.maxFeatures
}

// EmbedText computes the TF-IDF embedding for a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.embedLocked(text)
}

// EmbedTexts computes TF-IDF embeddings for multiple texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedLocked(text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// embedLocked computes one vector. Caller holds at least a read lock.
func (e *Embedder) embedLocked(text string) ([]float32, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}

	vec := make([]float64, e.maxFeatures)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		// No vocabulary overlap yields the zero vector, not an error.
		return toFloat32(vec), nil
	}

	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}

	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return toFloat32(vec), nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
