package dedup

import (
	"testing"

	"github.com/finsight/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClusterer(t *testing.T, threshold float32) *Clusterer {
	t.Helper()
	c, err := NewClusterer(threshold)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func TestNewClustererValidatesThreshold(t *testing.T) {
	for _, threshold := range []float32{-0.5, 1.01} {
		_, err := NewClusterer(threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold, "threshold %f", threshold)
	}

	for _, threshold := range []float32{0, 1} {
		c, err := NewClusterer(threshold)
		require.NoError(t, err, "threshold %f", threshold)
		c.Release()
	}
}

func TestMatrixShape(t *testing.T) {
	c := newTestClusterer(t, 0.8)

	items := []Item{
		{Vector: []float32{1, 0}},
		{Vector: []float32{0, 1}},
		{Vector: []float32{1, 1}},
	}
	matrix, err := c.Matrix(items)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	for i := range matrix {
		assert.InDelta(t, 1.0, matrix[i][i], 1e-6, "diagonal at %d", i)
		for j := range matrix {
			assert.Equal(t, matrix[i][j], matrix[j][i], "symmetry at (%d,%d)", i, j)
		}
	}
	assert.InDelta(t, 0.0, matrix[0][1], 1e-6)
}

func TestLabelsClustersNearDuplicates(t *testing.T) {
	c := newTestClusterer(t, 0.82)

	// Two phrasings of the same RBI story plus one unrelated article.
	items := []Item{
		{Vector: []float32{1, 0, 0}},
		{Vector: []float32{0.93, 0.36756, 0}},
		{Vector: []float32{0.10, 0.07345, 0.9922}},
	}
	labels, err := c.Labels(items)
	require.NoError(t, err)

	assert.Equal(t, labels[0], labels[1], "near-duplicates share a story")
	assert.NotEqual(t, labels[0], labels[2], "unrelated article stands alone")
}

func TestZeroThresholdKeepsNegativePairsApart(t *testing.T) {
	c := newTestClusterer(t, 0)

	// Opposed vectors have cosine -1; at threshold 0 only pairs with
	// non-negative similarity connect.
	items := []Item{
		{Vector: []float32{1, 0}},
		{Vector: []float32{-1, 0}},
		{Vector: []float32{1, 0.001}},
	}
	labels, err := c.Labels(items)
	require.NoError(t, err)

	assert.NotEqual(t, labels[0], labels[1], "anti-correlated pair stays split")
	assert.Equal(t, labels[0], labels[2], "non-negative pair connects at 0")
}

func TestLabelsAreAPartition(t *testing.T) {
	c := newTestClusterer(t, 0.9)

	items := []Item{
		{Vector: []float32{1, 0}},
		{Vector: []float32{0, 1}},
		{Vector: []float32{0.99, 0.14}},
		{Vector: []float32{-1, 0}},
	}
	labels, err := c.Labels(items)
	require.NoError(t, err)
	require.Len(t, labels, len(items))

	// Every item gets a label, labels are dense from 0.
	max := 0
	for _, label := range labels {
		assert.GreaterOrEqual(t, label, 0)
		if label > max {
			max = label
		}
	}
	seen := make(map[int]bool)
	for _, label := range labels {
		seen[label] = true
	}
	for l := 0; l <= max; l++ {
		assert.True(t, seen[l], "label %d is used", l)
	}
}

func TestLabelsDeterministic(t *testing.T) {
	c := newTestClusterer(t, 0.8)

	items := []Item{
		{Vector: []float32{1, 0, 0}},
		{Vector: []float32{0.95, 0.3122, 0}},
		{Vector: []float32{0, 1, 0}},
		{Vector: []float32{0, 0.95, 0.3122}},
		{Vector: []float32{0, 0, 1}},
	}
	first, err := c.Labels(items)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := c.Labels(items)
		require.NoError(t, err)
		assert.Equal(t, first, again, "run %d", i)
	}
}

func TestHigherThresholdNeverMergesMore(t *testing.T) {
	items := []Item{
		{Vector: []float32{1, 0}},
		{Vector: []float32{0.9, 0.4359}},
		{Vector: []float32{0.6, 0.8}},
	}

	loose := newTestClusterer(t, 0.6)
	strict := newTestClusterer(t, 0.95)

	looseLabels, err := loose.Labels(items)
	require.NoError(t, err)
	strictLabels, err := strict.Labels(items)
	require.NoError(t, err)

	looseCount := distinct(looseLabels)
	strictCount := distinct(strictLabels)
	assert.GreaterOrEqual(t, strictCount, looseCount,
		"raising the threshold can only split clusters")
}

func TestLabelsTransitiveChaining(t *testing.T) {
	c := newTestClusterer(t, 0.9)

	// A~B and B~C meet the threshold, A~C does not; connected components
	// still place all three together.
	items := []Item{
		{Vector: []float32{1, 0}},
		{Vector: []float32{0.95, 0.3122}},
		{Vector: []float32{0.81, 0.5864}},
	}
	labels, err := c.Labels(items)
	require.NoError(t, err)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
}

func TestLabelsLexicalFallback(t *testing.T) {
	c := newTestClusterer(t, 0.6)

	// The second item has no vector, so the whole batch compares lexically.
	items := []Item{
		{Vector: []float32{1, 0}, Text: "RBI holds repo rate steady in review"},
		{Text: "RBI holds repo rate steady in policy review"},
		{Vector: []float32{0.99, 0.14}, Text: "HDFC Bank posts record quarterly profit"},
	}
	labels, err := c.Labels(items)
	require.NoError(t, err)
	assert.Equal(t, labels[0], labels[1])
	assert.NotEqual(t, labels[0], labels[2])
}

func TestDeduplicateEmptyInput(t *testing.T) {
	c := newTestClusterer(t, 0.8)

	stories, err := c.Deduplicate(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestDeduplicateStories(t *testing.T) {
	c := newTestClusterer(t, 0.82)

	articles := []*core.Article{
		{Id: 11, Title: "RBI holds rate", Content: "The central bank held the repo rate."},
		{Id: 12, Title: "RBI keeps repo rate unchanged", Content: "The Reserve Bank of India left its policy rate where it was."},
		{Id: 13, Title: "Monsoon outlook improves", Content: "Rainfall is expected above normal."},
	}
	vectors := map[core.ID][]float32{
		11: {1, 0, 0},
		12: {0.93, 0.36756, 0},
		13: {0.10, 0.07345, 0.9922},
	}

	stories, err := c.Deduplicate(articles, vectors)
	require.NoError(t, err)
	require.Len(t, stories, 2)

	assert.Equal(t, core.ID(1), stories[0].Id)
	assert.Equal(t, []core.ID{11, 12}, stories[0].MemberIds)
	// Longest title+content wins representation.
	assert.Equal(t, core.ID(12), stories[0].RepresentativeId)

	assert.Equal(t, core.ID(2), stories[1].Id)
	assert.Equal(t, []core.ID{13}, stories[1].MemberIds)
	assert.Equal(t, core.ID(13), stories[1].RepresentativeId)
}

func TestDeduplicateRepresentativeTieBreaksByID(t *testing.T) {
	c := newTestClusterer(t, 0.8)

	// Same text length, identical vectors.
	articles := []*core.Article{
		{Id: 22, Title: "aaaa", Content: "bbbb"},
		{Id: 21, Title: "cccc", Content: "dddd"},
	}
	vectors := map[core.ID][]float32{
		21: {1, 0},
		22: {1, 0},
	}

	stories, err := c.Deduplicate(articles, vectors)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, core.ID(21), stories[0].RepresentativeId)
	assert.Equal(t, []core.ID{21, 22}, stories[0].MemberIds)
}

func distinct(labels []int) int {
	set := make(map[int]struct{})
	for _, label := range labels {
		set[label] = struct{}{}
	}
	return len(set)
}
