package impact

import (
	"testing"

	"github.com/finsight/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDirectCompanyMention(t *testing.T) {
	a := NewAnalyzer(nil)

	report := a.Analyze(&core.EntityTags{
		ArticleId: 1,
		Companies: []string{"HDFC Bank"},
	})

	require.Len(t, report.Stocks, 1)
	assert.Equal(t, "HDFCBANK", report.Stocks[0].Symbol)
	assert.Equal(t, float32(1.0), report.Stocks[0].Confidence)
	assert.Equal(t, "direct", report.Stocks[0].Kind)
	assert.Equal(t, "HDFC Bank", report.Stocks[0].Trigger)
}

func TestAnalyzeSectorImpact(t *testing.T) {
	a := NewAnalyzer(nil)

	report := a.Analyze(&core.EntityTags{
		ArticleId: 2,
		Sectors:   []string{"Banking"},
	})

	require.Len(t, report.Stocks, 2)
	for _, stock := range report.Stocks {
		assert.Equal(t, float32(0.7), stock.Confidence)
		assert.Equal(t, "sector", stock.Kind)
	}
	assert.Equal(t, "HDFCBANK", report.Stocks[0].Symbol)
	assert.Equal(t, "ICICIBANK", report.Stocks[1].Symbol)
}

func TestAnalyzeRegulatorImpact(t *testing.T) {
	a := NewAnalyzer(nil)

	report := a.Analyze(&core.EntityTags{
		ArticleId:  3,
		Regulators: []string{"RBI"},
	})

	// RBI hits all rate-sensitive symbols at its configured confidence.
	require.Len(t, report.Stocks, 3)
	for _, stock := range report.Stocks {
		assert.Equal(t, float32(0.6), stock.Confidence)
		assert.Equal(t, "regulatory", stock.Kind)
		assert.Equal(t, "RBI", stock.Trigger)
	}
}

func TestAnalyzeUnknownRegulatorUsesDefaultConfidence(t *testing.T) {
	a := NewAnalyzer(nil)

	report := a.Analyze(&core.EntityTags{
		ArticleId:  4,
		Regulators: []string{"IRDAI"},
	})

	require.NotEmpty(t, report.Stocks)
	for _, stock := range report.Stocks {
		assert.Equal(t, float32(0.4), stock.Confidence)
	}
}

func TestAnalyzeDuplicatesKeepHighestConfidence(t *testing.T) {
	a := NewAnalyzer(nil)

	// HDFCBANK appears three times: direct (1.0), via Banking (0.7) and via
	// RBI (0.6). Only the direct entry survives.
	report := a.Analyze(&core.EntityTags{
		ArticleId:  5,
		Companies:  []string{"HDFC Bank"},
		Sectors:    []string{"Banking"},
		Regulators: []string{"RBI"},
	})

	bySymbol := make(map[string]core.ImpactedStock)
	for _, stock := range report.Stocks {
		_, dup := bySymbol[stock.Symbol]
		require.False(t, dup, "symbol %s appears twice", stock.Symbol)
		bySymbol[stock.Symbol] = stock
	}

	assert.Equal(t, float32(1.0), bySymbol["HDFCBANK"].Confidence)
	assert.Equal(t, "direct", bySymbol["HDFCBANK"].Kind)
	assert.Equal(t, float32(0.7), bySymbol["ICICIBANK"].Confidence)
	assert.Equal(t, float32(0.6), bySymbol["BAJFINANCE"].Confidence)
}

func TestAnalyzeOrderingDeterministic(t *testing.T) {
	a := NewAnalyzer(nil)

	tags := &core.EntityTags{
		ArticleId:  6,
		Companies:  []string{"Infosys", "TCS"},
		Sectors:    []string{"Aviation"},
		Regulators: []string{"SEBI"},
	}

	first := a.Analyze(tags)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Analyze(tags), "run %d", i)
	}

	// Descending confidence, symbol breaks ties.
	for i := 1; i < len(first.Stocks); i++ {
		prev, cur := first.Stocks[i-1], first.Stocks[i]
		assert.True(t, prev.Confidence > cur.Confidence ||
			(prev.Confidence == cur.Confidence && prev.Symbol < cur.Symbol))
	}
}

func TestAnalyzeUnknownEntitiesIgnored(t *testing.T) {
	a := NewAnalyzer(nil)

	report := a.Analyze(&core.EntityTags{
		ArticleId: 7,
		Companies: []string{"Unknown Corp"},
		Sectors:   []string{"Agriculture"},
	})
	assert.Empty(t, report.Stocks)
	assert.Equal(t, core.ID(7), report.ArticleId)
}
