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


// Package impact derives stock impact reports from article entity tags.
//
// Each entity tag class maps to impacted symbols at a fixed confidence tier:
// a direct company mention scores 1.0, a sector mention scores 0.7 for the
// sector's representative stocks, and a regulator mention applies its
// per-regulator confidence to the configured rate-sensitive symbols. When
// several tags hit the same symbol, the highest confidence wins.
package impact

import (
	"sort"

	"github.com/finsight/newsdesk/core"
)

const (
	directConfidence  float32 = 1.0
	sectorConfidence  float32 = 0.7
	defaultRegulatory float32 = 0.4
)

// Tables holds the entity→symbol mappings the analyzer scores against.
// The host supplies them alongside the query lexicon; the engine never
// derives them.
type Tables struct {
	// CompanySymbols maps a company name to its stock symbol.
	CompanySymbols map[string]string `yaml:"companySymbols"`

	// SectorStocks maps a sector name to its representative symbols.
	SectorStocks map[string][]string `yaml:"sectorStocks"`

	// RegulatorConfidence gives per-regulator impact confidence; regulators
	// absent from the map score 0.4.
	RegulatorConfidence map[string]float32 `yaml:"regulatorConfidence"`

	// RateSensitive lists the symbols a regulatory event applies to.
	RateSensitive []string `yaml:"rateSensitive"`
}

// DefaultTables returns the built-in Indian large-cap mapping.
func DefaultTables() *Tables {
	return &Tables{
		CompanySymbols: map[string]string{
			"HDFC Bank":       "HDFCBANK",
			"ICICI Bank":      "ICICIBANK",
			"TCS":             "TCS",
			"Infosys":         "INFY",
			"Reliance Retail": "RELIANCE",
			"Adani Ports":     "ADANIPORTS",
			"Maruti Suzuki":   "MARUTI",
			"L&T":             "LT",
			"Coal India":      "COALINDIA",
			"Bajaj Finance":   "BAJFINANCE",
			"Paytm":           "PAYTM",
			"Air India":       "AIRINDIA",
			"SpiceJet":        "SPICEJET",
		},
		SectorStocks: map[string][]string{
			"Banking":            {"HDFCBANK", "ICICIBANK"},
			"Financial Services": {"BAJFINANCE"},
			"Retail":             {"RELIANCE"},
			"IT Services":        {"TCS", "INFY"},
			"Logistics":          {"ADANIPORTS"},
			"Infrastructure":     {"LT"},
			"Mining":             {"COALINDIA"},
			"Automobile":         {"MARUTI"},
			"Fintech":            {"PAYTM"},
			"Aviation":           {"AIRINDIA", "SPICEJET"},
		},
		RegulatorConfidence: map[string]float32{
			"RBI":             0.6,
			"SEBI":            0.5,
			"US Fed":          0.5,
			"Federal Reserve": 0.5,
		},
		RateSensitive: []string{"HDFCBANK", "ICICIBANK", "BAJFINANCE"},
	}
}

// Analyzer scores entity tags against its tables.
type Analyzer struct {
	tables *Tables
}

// NewAnalyzer creates an analyzer. A nil tables argument uses DefaultTables.
func NewAnalyzer(tables *Tables) *Analyzer {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Analyzer{tables: tables}
}

// Analyze maps one article's entity tags to impacted stocks. The result is
// deterministic: duplicates collapse keeping the highest confidence, and
// surviving stocks sort by descending confidence, then symbol.
func (a *Analyzer) Analyze(tags *core.EntityTags) *core.ImpactReport {
	var impacted []core.ImpactedStock

	// Direct company mentions
	for _, company := range tags.Companies {
		if symbol, ok := a.tables.CompanySymbols[company]; ok {
			impacted = append(impacted, core.ImpactedStock{
				Symbol:     symbol,
				Confidence: directConfidence,
				Kind:       "direct",
				Trigger:    company,
			})
		}
	}

	// Sector-wide impact
	for _, sector := range tags.Sectors {
		for _, symbol := range a.tables.SectorStocks[sector] {
			impacted = append(impacted, core.ImpactedStock{
				Symbol:     symbol,
				Confidence: sectorConfidence,
				Kind:       "sector",
				Trigger:    sector,
			})
		}
	}

	// Regulatory events hit the rate-sensitive symbols
	for _, regulator := range tags.Regulators {
		confidence, ok := a.tables.RegulatorConfidence[regulator]
		if !ok {
			confidence = defaultRegulatory
		}
		for _, symbol := range a.tables.RateSensitive {
			impacted = append(impacted, core.ImpactedStock{
				Symbol:     symbol,
				Confidence: confidence,
				Kind:       "regulatory",
				Trigger:    regulator,
			})
		}
	}

	// Collapse duplicates keeping the highest confidence per symbol.
	best := make(map[string]core.ImpactedStock, len(impacted))
	for _, stock := range impacted {
		if prior, ok := best[stock.Symbol]; !ok || stock.Confidence > prior.Confidence {
			best[stock.Symbol] = stock
		}
	}

	stocks := make([]core.ImpactedStock, 0, len(best))
	for _, stock := range best {
		stocks = append(stocks, stock)
	}
	sort.Slice(stocks, func(i, j int) bool {
		if stocks[i].Confidence != stocks[j].Confidence {
			return stocks[i].Confidence > stocks[j].Confidence
		}
		return stocks[i].Symbol < stocks[j].Symbol
	})

	return &core.ImpactReport{
		ArticleId: tags.ArticleId,
		Stocks:    stocks,
	}
}
