package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
)

// RunwayDirection is one end of a runway.
type RunwayDirection struct {
	Ident   string
	Heading int
}

// NewRunwayDirection normalizes the heading into [0, 360).
func NewRunwayDirection(ident string, heading int) RunwayDirection {
	return RunwayDirection{Ident: ident, Heading: NormalizeHeading(heading)}
}

// Number returns the two digit runway number without the side letter.
func (d RunwayDirection) Number() string {
	if len(d.Ident) < 2 {
		return d.Ident
	}
	return d.Ident[:2]
}

// Runway is a physical strip with its two opposite directions.
type Runway struct {
	Directions [2]RunwayDirection
}

// NewRunway builds a runway from its two ends.
func NewRunway(a, b RunwayDirection) Runway {
	return Runway{Directions: [2]RunwayDirection{a, b}}
}

// Contains reports whether ident names one of the runway's ends.
func (r Runway) Contains(ident string) bool {
	return r.Directions[0].Ident == ident || r.Directions[1].Ident == ident
}

// Direction returns the end named ident.
func (r Runway) Direction(ident string) (RunwayDirection, bool) {
	for _, d := range r.Directions {
		if d.Ident == ident {
			return d, true
		}
	}
	return RunwayDirection{}, false
}

func (r Runway) String() string {
	return r.Directions[0].Ident + "/" + r.Directions[1].Ident
}

// Airport is rebuilt every refresh cycle from static runway geometry, then
// receives its latest observation and its runway selections.
type Airport struct {
	ICAO        string
	Runways     []Runway
	Observation *metar.Observation
	InUse       RunwaysInUse
}

// NewAirport creates an airport with no observation and no selection.
func NewAirport(icao string) *Airport {
	return &Airport{ICAO: icao}
}

// AddRunway appends a runway. Idents must stay unique within the airport.
func (a *Airport) AddRunway(r Runway) error {
	for _, d := range r.Directions {
		if a.HasRunwayIdent(d.Ident) {
			return fmt.Errorf("add runway %s to %s: duplicate ident %q", r, a.ICAO, d.Ident)
		}
	}
	if r.Directions[0].Ident == r.Directions[1].Ident {
		return fmt.Errorf("add runway %s to %s: both ends named %q", r, a.ICAO, r.Directions[0].Ident)
	}
	a.Runways = append(a.Runways, r)
	return nil
}

// HasRunwayIdent reports whether any runway end is named ident.
func (a *Airport) HasRunwayIdent(ident string) bool {
	return slices.ContainsFunc(a.Runways, func(r Runway) bool { return r.Contains(ident) })
}

// HasRunwayPrefix reports whether any runway end ident starts with prefix.
func (a *Airport) HasRunwayPrefix(prefix string) bool {
	for _, r := range a.Runways {
		for _, d := range r.Directions {
			if strings.HasPrefix(d.Ident, prefix) {
				return true
			}
		}
	}
	return false
}

// AttachObservation stores the latest decoded report for the airport.
func (a *Airport) AttachObservation(obs metar.Observation) {
	a.Observation = &obs
}
