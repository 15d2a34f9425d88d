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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/ingestion"
	"github.com/finsight/newsdesk/query"
	"gopkg.in/yaml.v3"
)

// LoadLexicon reads a YAML lexicon file:
//
//	companies:
//	  HDFC Bank: Banking
//	regulators:
//	  - RBI
func LoadLexicon(path string) (*query.Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}

	var lexicon query.Lexicon
	if err := yaml.Unmarshal(data, &lexicon); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if len(lexicon.CompanySectors) == 0 {
		return nil, fmt.Errorf("lexicon %s defines no companies", path)
	}
	return &lexicon, nil
}

// DefaultLexicon returns the built-in Indian financial-news dictionary used
// when no lexicon file is given.
func DefaultLexicon() *query.Lexicon {
	return &query.Lexicon{
		CompanySectors: map[string]string{
			"HDFC Bank":       "Banking",
			"ICICI Bank":      "Banking",
			"TCS":             "IT Services",
			"Infosys":         "IT Services",
			"Reliance Retail": "Retail",
			"Adani Ports":     "Logistics",
			"Maruti Suzuki":   "Automobile",
			"L&T":             "Infrastructure",
			"Coal India":      "Mining",
			"Bajaj Finance":   "Financial Services",
			"Paytm":           "Fintech",
			"Air India":       "Aviation",
			"SpiceJet":        "Aviation",
		},
		Regulators: []string{"RBI", "SEBI", "US Fed", "Federal Reserve"},
	}
}

// newLexiconExtractor builds the entity extraction hook the CLI hosts:
// case-insensitive substring tagging against the lexicon. The engine gets
// this as an opaque function and never sees the matching rules.
func newLexiconExtractor(lexicon *query.Lexicon) ingestion.ExtractFunc {
	return func(article *core.Article) (*core.EntityTags, error) {
		text := strings.ToLower(article.Title + " " + article.Content)
		tags := &core.EntityTags{}

		sectors := make(map[string]struct{})
		for _, company := range lexicon.Companies() {
			if strings.Contains(text, strings.ToLower(company)) {
				tags.Companies = append(tags.Companies, company)
				sectors[lexicon.CompanySectors[company]] = struct{}{}
			}
		}
		for _, sector := range lexicon.Sectors() {
			if _, ok := sectors[sector]; ok {
				tags.Sectors = append(tags.Sectors, sector)
				continue
			}
			if strings.Contains(text, strings.ToLower(sector)) {
				tags.Sectors = append(tags.Sectors, sector)
			}
		}
		for _, regulator := range lexicon.Regulators {
			if strings.Contains(text, strings.ToLower(regulator)) {
				tags.Regulators = append(tags.Regulators, regulator)
			}
		}
		return tags, nil
	}
}
