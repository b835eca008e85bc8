package domain

import (
	"math"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
)

const epsilon = 1e-9

// CrosswindSide is the side of the runway the crosswind blows from.
type CrosswindSide uint8

const (
	Variable CrosswindSide = iota
	Left
	Right
)

func (s CrosswindSide) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "variable"
	}
}

// Crosswind is a crosswind magnitude in knots and its side.
type Crosswind struct {
	Speed int
	Side  CrosswindSide
}

// NormalizeHeading maps any heading into [0, 360).
func NormalizeHeading(h int) int {
	return ((h % 360) + 360) % 360
}

// angleDiff is the shortest arc between two headings, in [0, 180].
func angleDiff(a, b int) int {
	d := NormalizeHeading(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// signedAngle is the rotation from track to wind in [-180, 180); positive
// means the wind is clockwise of the track.
func signedAngle(track, wind int) int {
	return NormalizeHeading(wind-track+540) - 180
}

func radians(deg int) float64 {
	return float64(deg) * math.Pi / 180
}

// arcIncludes reports whether heading lies on the clockwise arc from..to.
func arcIncludes(from, to, heading int) bool {
	from, to, heading = NormalizeHeading(from), NormalizeHeading(to), NormalizeHeading(heading)
	if from <= to {
		return from <= heading && heading <= to
	}
	return heading >= from || heading <= to
}

// headwindFactor is the fraction of the wind speed acting along track. Winds
// without a usable direction count as fully aligned.
func headwindFactor(track int, w metar.Wind) float64 {
	if w.Arc != nil {
		if from, to, ok := w.Arc.Bounds(); ok {
			if arcIncludes(from, to, track) {
				return 1
			}
			return math.Max(
				math.Cos(radians(angleDiff(track, from))),
				math.Cos(radians(angleDiff(track, to))),
			)
		}
	}
	if dir, ok := w.Direction.Get(); ok && !w.Variable {
		return math.Cos(radians(angleDiff(track, dir)))
	}
	return 1
}

// MaxHeadwind projects the strongest reported wind onto the runway heading.
// Tailwinds come out negative. It reports false when the wind speed is unknown.
func MaxHeadwind(d RunwayDirection, w metar.Wind) (int, bool) {
	speed, ok := w.MaxSpeed()
	if !ok {
		return 0, false
	}
	return int(math.Ceil(speed * headwindFactor(d.Heading, w))), true
}

// MaxTailwind is the headwind of the reciprocal heading, never below zero.
func MaxTailwind(d RunwayDirection, w metar.Wind) (int, bool) {
	reciprocal := RunwayDirection{Ident: d.Ident, Heading: NormalizeHeading(d.Heading + 180)}
	tail, ok := MaxHeadwind(reciprocal, w)
	if !ok {
		return 0, false
	}
	return max(tail, 0), true
}

func crosswindFactor(track int, w metar.Wind) (float64, CrosswindSide) {
	if w.Arc != nil {
		if from, to, ok := w.Arc.Bounds(); ok {
			right := arcIncludes(from, to, track+90)
			left := arcIncludes(from, to, track+270)
			switch {
			case right && left:
				return 1, Variable
			case right:
				return 1, Right
			case left:
				return 1, Left
			}
			a := math.Sin(radians(signedAngle(track, from)))
			b := math.Sin(radians(signedAngle(track, to)))
			if math.Abs(math.Abs(a)-math.Abs(b)) < epsilon && a*b < 0 {
				return math.Abs(a), Variable
			}
			if math.Abs(b) > math.Abs(a) {
				a = b
			}
			return math.Abs(a), sideOf(a)
		}
	}
	if dir, ok := w.Direction.Get(); ok && !w.Variable {
		s := math.Sin(radians(signedAngle(track, dir)))
		return math.Abs(s), sideOf(s)
	}
	return 1, Variable
}

func sideOf(component float64) CrosswindSide {
	switch {
	case component > epsilon:
		return Right
	case component < -epsilon:
		return Left
	default:
		return Variable
	}
}

// MaxCrosswind projects the strongest reported wind onto the perpendicular
// of the runway heading. It reports false when the wind speed is unknown.
func MaxCrosswind(d RunwayDirection, w metar.Wind) (Crosswind, bool) {
	speed, ok := w.MaxSpeed()
	if !ok {
		return Crosswind{}, false
	}
	factor, side := crosswindFactor(d.Heading, w)
	return Crosswind{Speed: int(math.Ceil(speed * factor)), Side: side}, true
}

// WindComponents summarizes the wind for one runway end.
type WindComponents struct {
	Headwind  int
	Tailwind  int
	Crosswind Crosswind
}

// Components computes head, tail and crosswind for d in one call.
func Components(d RunwayDirection, w metar.Wind) (WindComponents, bool) {
	head, ok := MaxHeadwind(d, w)
	if !ok {
		return WindComponents{}, false
	}
	tail, _ := MaxTailwind(d, w)
	cross, _ := MaxCrosswind(d, w)
	return WindComponents{Headwind: head, Tailwind: tail, Crosswind: cross}, true
}
