// Package domain models airports, their runways and the runway selections
// made for them during a refresh cycle.
//
// # Runways
//
// A runway is a pair of opposite ends sharing one strip. Each end has an
// ident and a true heading:
//
//	"01L" at 014° and "19R" at 194° are the two ends of one runway.
//	Headings are normalized to [0, 360); 360 and 0 are the same heading.
//	Idents are unique within one airport.
//
// # Wind components
//
// Components are computed per runway end from the reported wind and rounded
// up to whole knots. Speeds reported in metres per second are converted to
// knots first.
//
//	headwind  = speed * cos(wind - track)
//	crosswind = speed * sin(wind - track), positive from the right
//
// With a variable arc (e.g. 250V330) the worst case inside the arc is used:
// full speed when the heading of interest lies inside the arc, otherwise the
// larger of the two arc endpoints. Wind without a usable speed gives no
// result, which is not the same as calm.
//
// # Selections
//
// Runway selections come from three sources, in order of precedence:
//
//	atis     runways named in an ATIS bulletin
//	metar    runways computed from the latest observation
//	default  configured or built-in fallback runways
//
// The effective selection of an airport is the one from the first source
// present. Sources are never blended. Within one source, two usages of the
// same runway end merge: arriving and departing become both.
//
// # Runway file records
//
// Each runway end in use is written as one or two records:
//
//	ACTIVE_RUNWAY:<ICAO>:<ident>:1   departures
//	ACTIVE_RUNWAY:<ICAO>:<ident>:0   arrivals
package domain
