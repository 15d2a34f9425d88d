package query

import "sort"

// Lexicon is the finite entity dictionary supplied by the host: a
// company→sector map and a list of regulator names. The engine never owns or
// derives this data.
type Lexicon struct {
	CompanySectors map[string]string `yaml:"companies"`
	Regulators     []string          `yaml:"regulators"`
}

// Companies returns the known company names in sorted order.
func (l *Lexicon) Companies() []string {
	names := make([]string, 0, len(l.CompanySectors))
	for name := range l.CompanySectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sectors returns the distinct sector names in sorted order.
func (l *Lexicon) Sectors() []string {
	set := make(map[string]struct{}, len(l.CompanySectors))
	for _, sector := range l.CompanySectors {
		set[sector] = struct{}{}
	}
	sectors := make([]string, 0, len(set))
	for sector := range set {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	return sectors
}
