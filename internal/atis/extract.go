// Package atis reads the runways in use from the text of ATIS broadcasts.
package atis

import (
	"regexp"
	"strings"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

// lookbehind is how many bytes before a "RUNWAY xx IN USE" statement are
// checked for a departure or approach qualifier.
const lookbehind = 20

// Bulletin is one ATIS as published by the network.
type Bulletin struct {
	Callsign string
	Lines    []string
}

// Station returns the ICAO code the bulletin belongs to, taken from the
// first four characters of the callsign.
func (b Bulletin) Station() string {
	if len(b.Callsign) < 4 {
		return ""
	}
	return strings.ToUpper(b.Callsign[:4])
}

// Text joins the bulletin lines with single spaces.
func (b Bulletin) Text() string {
	return strings.Join(b.Lines, " ")
}

// Extractor finds runway-in-use statements in ATIS text.
type Extractor struct {
	// RUNWAYS 01L AND 01R IN USE
	pair *regexp.Regexp
	// RUNWAY IN USE 19L
	inUseLeading *regexp.Regexp
	// EXPECT ILS APPROACH RUNWAY 01R
	approach *regexp.Regexp
	// DEPARTURE RUNWAY 01L
	departure *regexp.Regexp
	// RUNWAY 01L IN USE
	inUseTrailing *regexp.Regexp
}

// NewExtractor compiles the runway statement patterns.
func NewExtractor() *Extractor {
	const rwy = `(\d{2}[LRC]*)`
	return &Extractor{
		pair:          regexp.MustCompile(`\bRUNWAYS ` + rwy + ` AND ` + rwy + ` IN USE\b`),
		inUseLeading:  regexp.MustCompile(`\bRUNWAY IN USE ` + rwy + `\b`),
		approach:      regexp.MustCompile(`\bAPPROACH (?:RWY|RUNWAY) ` + rwy + `\b`),
		departure:     regexp.MustCompile(`\bDEPARTURE RUNWAY ` + rwy + `\b`),
		inUseTrailing: regexp.MustCompile(`\bRUNWAY ` + rwy + ` IN USE\b`),
	}
}

// Extract returns the runways the text says are in use. Explicit arrival,
// departure and combined statements are read first; a bare "RUNWAY xx IN USE"
// takes its usage from the bulletin type and never overrides an explicit
// statement on a combined bulletin.
func (e *Extractor) Extract(text string) domain.Selection {
	var sel domain.Selection

	for _, m := range e.pair.FindAllStringSubmatch(text, -1) {
		sel.Add(m[1], domain.Both)
		sel.Add(m[2], domain.Both)
	}
	for _, m := range e.inUseLeading.FindAllStringSubmatch(text, -1) {
		sel.Add(m[1], domain.Both)
	}
	for _, m := range e.approach.FindAllStringSubmatch(text, -1) {
		sel.Add(m[1], domain.Arriving)
	}
	for _, m := range e.departure.FindAllStringSubmatch(text, -1) {
		sel.Add(m[1], domain.Departing)
	}

	arrival := strings.Contains(text, " ARRIVAL INFORMATION ")
	departure := strings.Contains(text, " DEPARTURE INFORMATION ")
	for _, idx := range e.inUseTrailing.FindAllStringSubmatchIndex(text, -1) {
		start := idx[0]
		prefix := text[max(0, start-lookbehind):start]
		if strings.Contains(prefix, "DEPARTURE ") || strings.Contains(prefix, "APPROACH ") {
			continue
		}
		rwy := text[idx[2]:idx[3]]
		switch {
		case arrival:
			sel.Add(rwy, domain.Arriving)
		case departure:
			sel.Add(rwy, domain.Departing)
		default:
			if _, ok := sel.Usage(rwy); !ok {
				sel.Add(rwy, domain.Both)
			}
		}
	}
	return sel
}
