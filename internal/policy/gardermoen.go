package policy

import (
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
)

// Mode is how the parallel runways at Gardermoen are operated.
type Mode uint8

const (
	Mixed Mode = iota
	Segregated
	Single
)

func (m Mode) String() string {
	switch m {
	case Segregated:
		return "segregated"
	case Single:
		return "single"
	default:
		return "mixed"
	}
}

const (
	// Single runway operations run from 22:30 to 06:30 local time.
	nightStart = 22*60 + 30
	nightEnd   = 6*60 + 30

	ceilingHundredsFt   = 5
	minVisibilityMetres = 5000
	deiceTemperature    = 5
	fallbackNumber      = "01"
)

// deicingPhenomena need de-icing when it is cold enough.
var deicingPhenomena = []metar.Phenomenon{
	metar.Drizzle, metar.Rain, metar.Snow, metar.SnowGrains, metar.IceCrystals,
	metar.IcePellets, metar.Hail, metar.SmallHail, metar.UnknownPrecip, metar.Mist, metar.Fog,
}

// Gardermoen runs the two parallel runways of ENGM in mixed, segregated or
// single mode depending on local time and weather.
type Gardermoen struct {
	clock         clockwork.Clock
	location      *time.Location
	defaultNumber int
}

// NewGardermoen returns the ENGM policy. defaultNumber is the runway number
// used when the wind does not decide; zero means none is configured.
func NewGardermoen(clock clockwork.Clock, loc *time.Location, defaultNumber int) *Gardermoen {
	return &Gardermoen{clock: clock, location: loc, defaultNumber: defaultNumber}
}

func (g *Gardermoen) Decide(a *domain.Airport) (Decision, error) {
	if a.Observation == nil || len(a.Runways) == 0 {
		return Decision{}, nil
	}
	number, src := g.runwayNumber(a)
	mode := g.Mode(*a.Observation)

	var sel domain.Selection
	switch mode {
	case Mixed:
		sel.Add(number+"L", domain.Both)
		sel.Add(number+"R", domain.Both)
	case Segregated:
		sel.Add(number+"L", domain.Departing)
		sel.Add(number+"R", domain.Arriving)
	case Single:
		ident, err := singleRunway(a.ICAO, number)
		if err != nil {
			return Decision{}, err
		}
		sel.Add(ident, domain.Both)
	}
	return Decision{Source: src, Selection: sel}, nil
}

// runwayNumber picks the runway number from the wind on the first pair,
// then the configured default, then "01".
func (g *Gardermoen) runwayNumber(a *domain.Airport) (string, domain.Source) {
	if d, ok := pickByHeadwind(a.Runways[0], a.Observation.Wind); ok {
		return d.Number(), domain.ComputedFromObservation
	}
	if g.defaultNumber > 0 {
		return fmt.Sprintf("%02d", g.defaultNumber), domain.ConfiguredFallback
	}
	return fallbackNumber, domain.ConfiguredFallback
}

// Mode returns the operating mode for the current local time and obs.
func (g *Gardermoen) Mode(obs metar.Observation) Mode {
	local := g.clock.Now().In(g.location)
	minutes := local.Hour()*60 + local.Minute()
	if minutes >= nightStart || minutes < nightEnd {
		return Single
	}
	if EvaluateMinima(obs).Any() {
		return Segregated
	}
	return Mixed
}

func singleRunway(icao, number string) (string, error) {
	switch number {
	case "01":
		return "01L", nil
	case "19":
		return "19R", nil
	default:
		return "", &ConfigurationError{ICAO: icao, Reason: fmt.Sprintf("no single runway for runway number %q", number)}
	}
}

// Minima lists the weather conditions that force segregated operations.
type Minima struct {
	LowCeiling         bool
	RVR                bool
	LowVisibility      bool
	VerticalVisibility bool
	Freezing           bool
	Deicing            bool
}

// Any reports whether any condition is met.
func (m Minima) Any() bool {
	return m.LowCeiling || m.RVR || m.LowVisibility || m.VerticalVisibility || m.Freezing || m.Deicing
}

// EvaluateMinima checks obs against the segregated operations minima.
// Undefined values count as meeting a condition.
func EvaluateMinima(obs metar.Observation) Minima {
	sky := obs.Sky
	if sky.CAVOK {
		return Minima{}
	}
	m := Minima{
		LowCeiling:         slices.ContainsFunc(sky.Clouds, isLowCeiling),
		RVR:                len(sky.RVR) > 0,
		VerticalVisibility: sky.VerticalVisibility.Reported(),
	}

	vis := sky.Visibility.InMetres()
	if v, ok := vis.Get(); ok {
		m.LowVisibility = v < minVisibilityMetres
	} else {
		m.LowVisibility = vis.IsUndefined()
	}

	cold := true
	if t, ok := obs.Temperature.Air.Get(); ok {
		cold = t < deiceTemperature
	}
	for _, w := range sky.Weather {
		if w.Descriptor == metar.Freezing {
			m.Freezing = true
		}
		if cold && slices.ContainsFunc(deicingPhenomena, w.Has) {
			m.Deicing = true
		}
	}
	return m
}

func isLowCeiling(c metar.Cloud) bool {
	coverage, ok := c.Coverage.Get()
	if ok && coverage != metar.Broken && coverage != metar.Overcast {
		return false
	}
	height, ok := c.Height.Get()
	return !ok || height < ceilingHundredsFt
}
