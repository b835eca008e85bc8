package domain

import (
	"maps"
	"slices"
)

// Airports is the set of airports of one refresh cycle, keyed by ICAO code.
type Airports map[string]*Airport

// Sorted returns the airports ordered by ICAO code.
func (as Airports) Sorted() []*Airport {
	out := make([]*Airport, 0, len(as))
	for _, icao := range slices.Sorted(maps.Keys(as)) {
		out = append(out, as[icao])
	}
	return out
}

// Get returns the airport for icao, creating it when missing.
func (as Airports) Get(icao string) *Airport {
	a, ok := as[icao]
	if !ok {
		a = NewAirport(icao)
		as[icao] = a
	}
	return a
}

// Assignments returns the effective selection of every airport that has
// one, and the ICAO codes of those that have none.
func (as Airports) Assignments() (assigned []Assignment, unconfigured []string) {
	for _, a := range as.Sorted() {
		src, sel, ok := a.InUse.Effective()
		if !ok {
			unconfigured = append(unconfigured, a.ICAO)
			continue
		}
		assigned = append(assigned, Assignment{ICAO: a.ICAO, Source: src, Selection: sel})
	}
	return assigned, unconfigured
}
