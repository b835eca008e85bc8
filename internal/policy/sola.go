package policy

import (
	"slices"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

const (
	solaMainRunway = "18"
	// solaCrosswindLimit is the crosswind on the main runway, in knots, at
	// which the crossing runway is considered.
	solaCrosswindLimit = 15
)

// Sola uses the main runway 18/36 at ENZV unless its crosswind reaches
// solaCrosswindLimit and the crossing runway has less.
type Sola struct{}

func (Sola) Decide(a *domain.Airport) (Decision, error) {
	if a.Observation == nil {
		return Decision{}, nil
	}
	mainIdx := slices.IndexFunc(a.Runways, func(r domain.Runway) bool {
		return r.Contains(solaMainRunway)
	})
	if mainIdx < 0 {
		return Decision{}, &ConfigurationError{ICAO: a.ICAO, Reason: "main runway " + solaMainRunway + " is missing"}
	}
	wind := a.Observation.Wind
	main := a.Runways[mainIdx]

	mainDir, ok := pickByHeadwind(main, wind)
	if !ok {
		mainDir, _ = main.Direction(solaMainRunway)
	}
	fallback := computed(domain.NewSelection(domain.Entry{Ident: mainDir.Ident, Usage: domain.Both}))

	mainCross, ok := domain.MaxCrosswind(mainDir, wind)
	if !ok || mainCross.Speed < solaCrosswindLimit {
		return fallback, nil
	}

	// Runways come in sector file order with the crossing runway next to
	// the main one.
	altIdx := mainIdx ^ 1
	if altIdx >= len(a.Runways) {
		return fallback, nil
	}
	alt := a.Runways[altIdx]
	altCross, ok := domain.MaxCrosswind(alt.Directions[0], wind)
	if !ok {
		return fallback, nil
	}
	altDir, ok := pickByHeadwind(alt, wind)
	if !ok || altCross.Speed >= mainCross.Speed {
		return fallback, nil
	}
	return computed(domain.NewSelection(domain.Entry{Ident: altDir.Ident, Usage: domain.Both})), nil
}
