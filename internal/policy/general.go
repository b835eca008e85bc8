package policy

import (
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
)

// minHeadwindMargin is how much stronger one end's headwind must be before
// the wind decides the runway.
const minHeadwindMargin = 2

// General picks the end of a single runway with clearly more headwind.
type General struct{}

func (General) Decide(a *domain.Airport) (Decision, error) {
	switch {
	case len(a.Runways) == 0 || a.Observation == nil:
		return Decision{}, nil
	case len(a.Runways) > 1:
		return Decision{}, &UnsupportedAirportError{ICAO: a.ICAO, Pairs: len(a.Runways)}
	}
	d, ok := pickByHeadwind(a.Runways[0], a.Observation.Wind)
	if !ok {
		return Decision{}, nil
	}
	return computed(domain.NewSelection(domain.Entry{Ident: d.Ident, Usage: domain.Both})), nil
}

// pickByHeadwind returns the end of r with the larger headwind when the two
// ends differ by more than minHeadwindMargin.
func pickByHeadwind(r domain.Runway, w metar.Wind) (domain.RunwayDirection, bool) {
	first, okFirst := domain.MaxHeadwind(r.Directions[0], w)
	second, okSecond := domain.MaxHeadwind(r.Directions[1], w)
	if !okFirst || !okSecond {
		return domain.RunwayDirection{}, false
	}
	switch {
	case first-second > minHeadwindMargin:
		return r.Directions[0], true
	case second-first > minHeadwindMargin:
		return r.Directions[1], true
	default:
		return domain.RunwayDirection{}, false
	}
}
