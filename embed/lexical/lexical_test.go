package lexical

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitAndEmbed(t *testing.T) {
	e := NewEmbedder()

	corpus := []string{
		"RBI holds repo rate steady in policy review",
		"HDFC Bank reports strong quarterly profit growth",
		"SEBI tightens disclosure norms for listed companies",
	}
	require.NoError(t, e.Fit(corpus))
	assert.True(t, e.Ready())

	vec, err := e.EmbedText(context.Background(), corpus[0])
	require.NoError(t, err)
	assert.Len(t, vec, e.Dim())

	// Fitted vectors with vocabulary overlap are unit length.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestEmbedBeforeFit(t *testing.T) {
	e := NewEmbedder()

	_, err := e.EmbedText(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.False(t, e.Ready())
}

func TestFitEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.ErrorIs(t, e.Fit(nil), ErrEmptyCorpus)
}

func TestDimFixedAcrossFit(t *testing.T) {
	e := NewEmbedder(WithMaxFeatures(64))

	// The dimension is pinned by the cap, not by the corpus.
	assert.Equal(t, 64, e.Dim())
	require.NoError(t, e.Fit([]string{"one tiny document"}))
	assert.Equal(t, 64, e.Dim())

	vec, err := e.EmbedText(context.Background(), "tiny document")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestVocabularyCapKeepsFrequentTerms(t *testing.T) {
	e := NewEmbedder(WithMaxFeatures(2))

	corpus := []string{
		"banking banking regulator",
		"banking regulator",
		"banking inflation",
	}
	require.NoError(t, e.Fit(corpus))

	// "banking" (df=3) and "regulator" (df=2) survive the cap; "inflation"
	// (df=1) does not.
	vecBank, err := e.EmbedText(context.Background(), "banking")
	require.NoError(t, err)
	vecInfl, err := e.EmbedText(context.Background(), "inflation")
	require.NoError(t, err)

	assert.NotEqual(t, make([]float32, 2), vecBank)
	assert.Equal(t, make([]float32, 2), vecInfl)
}

func TestNoOverlapYieldsZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"markets rallied on rate cut hopes"}))

	vec, err := e.EmbedText(context.Background(), "xylophone zebra")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, e.Dim()), vec)
}

func TestDeterministicAcrossInstances(t *testing.T) {
	corpus := []string{
		"RBI policy decision moves bond markets",
		"bank credit growth accelerates",
	}

	a := NewEmbedder()
	b := NewEmbedder()
	require.NoError(t, a.Fit(corpus))
	require.NoError(t, b.Fit(corpus))

	vecA, err := a.EmbedText(context.Background(), corpus[0])
	require.NoError(t, err)
	vecB, err := b.EmbedText(context.Background(), corpus[0])
	require.NoError(t, err)

	assert.Equal(t, vecA, vecB)
}

func TestInstancesAreIndependent(t *testing.T) {
	a := NewEmbedder()
	b := NewEmbedder()

	require.NoError(t, a.Fit([]string{"banking sector news"}))

	// Fitting one instance must not leak into another.
	assert.True(t, a.Ready())
	assert.False(t, b.Ready())
	_, err := b.EmbedText(context.Background(), "banking")
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestEmbedTextsBatch(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"alpha beta", "beta gamma"}))

	vectors, err := e.EmbedTexts(context.Background(), []string{"alpha", "gamma", "alpha"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestStopwordsExcluded(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Fit([]string{"the rate and the bank", "rate bank"}))

	// Stopwords never enter the vocabulary, so a stopword-only text has no
	// overlap.
	vec, err := e.EmbedText(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, e.Dim()), vec)
}
