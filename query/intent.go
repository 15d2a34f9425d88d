package query

import (
	"sort"
	"strings"

	"github.com/finsight/newsdesk/core"
)

// Interpreter classifies free-text queries against a lexicon. Matching is
// case-insensitive substring containment of each known entity name inside
// the query text; there is no further inference.
type Interpreter struct {
	lexicon *Lexicon
}

// NewInterpreter creates an interpreter over the given lexicon.
func NewInterpreter(lexicon *Lexicon) (*Interpreter, error) {
	if lexicon == nil {
		return nil, ErrLexiconRequired
	}
	return &Interpreter{lexicon: lexicon}, nil
}

// Interpret derives the structured intent of a query.
//
// Companies dominate sectors, which dominate regulators; a query matching
// none of them is a theme query. For a company query the sector set holds
// only the matched companies' sectors, deliberately dropping any sector
// names the text also contains: the company is the narrower signal, and
// keeping substring-matched sectors would dilute it.
func (i *Interpreter) Interpret(text string) *core.QueryIntent {
	lower := strings.ToLower(text)

	var companies []string
	companySectors := make(map[string]struct{})
	for _, company := range i.lexicon.Companies() {
		if strings.Contains(lower, strings.ToLower(company)) {
			companies = append(companies, company)
			companySectors[i.lexicon.CompanySectors[company]] = struct{}{}
		}
	}

	var verbatimSectors []string
	for _, sector := range i.lexicon.Sectors() {
		if strings.Contains(lower, strings.ToLower(sector)) {
			verbatimSectors = append(verbatimSectors, sector)
		}
	}

	var regulators []string
	for _, regulator := range sortedCopy(i.lexicon.Regulators) {
		if strings.Contains(lower, strings.ToLower(regulator)) {
			regulators = append(regulators, regulator)
		}
	}

	intent := &core.QueryIntent{
		Companies:  companies,
		Regulators: regulators,
	}

	switch {
	case len(companies) > 0:
		intent.Type = core.QueryTypeCompany
		intent.Sectors = sortedKeys(companySectors)
	case len(verbatimSectors) > 0:
		intent.Type = core.QueryTypeSector
		intent.Sectors = verbatimSectors
	case len(regulators) > 0:
		intent.Type = core.QueryTypeRegulator
	default:
		intent.Type = core.QueryTypeTheme
	}
	return intent
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
