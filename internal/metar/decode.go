// Package metar decodes METAR surface weather reports.
//
// Fields that may be reported as a run of slashes are held in a Field, which
// keeps "reported but undefined" apart from "not reported".
package metar

import (
	"fmt"
	"slices"
	"strings"
)

// DecodeError reports a report line that does not match the grammar.
// Remainder is the input from the first group that could not be consumed.
type DecodeError struct {
	Reason    string
	Remainder string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode metar: %s at %q", e.Reason, e.Remainder)
}

type token struct {
	text   string
	offset int
}

// decoder walks the whitespace-separated groups of one report. It is copied
// by value to backtrack.
type decoder struct {
	src  string
	toks []token
	pos  int
}

func newDecoder(src string) decoder {
	var toks []token
	start := -1
	for i := 0; i <= len(src); i++ {
		if i == len(src) || src[i] == ' ' || src[i] == '\t' {
			if start >= 0 {
				toks = append(toks, token{text: src[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return decoder{src: src, toks: toks}
}

func (d *decoder) peek() string { return d.peekAt(0) }

func (d *decoder) peekAt(n int) string {
	if d.pos+n < len(d.toks) {
		return d.toks[d.pos+n].text
	}
	return ""
}

func (d *decoder) advance(n int) { d.pos += n }

func (d *decoder) done() bool { return d.pos >= len(d.toks) }

// accept consumes the next group when it equals one of words.
func (d *decoder) accept(words ...string) bool {
	if !d.done() && slices.Contains(words, d.peek()) {
		d.pos++
		return true
	}
	return false
}

func (d *decoder) remainder() string {
	if d.done() {
		return ""
	}
	return d.src[d.toks[d.pos].offset:]
}

func (d *decoder) fail(reason string) error {
	return &DecodeError{Reason: reason, Remainder: d.remainder()}
}

// Decode parses one report line. Groups in the visibility/cloud, temperature
// and pressure section may come in any order; everything after it is
// optional, but any group left over once remarks are handled is an error.
func Decode(line string) (Observation, error) {
	raw := strings.TrimSpace(line)
	src := strings.TrimSpace(strings.TrimSuffix(raw, "="))
	d := newDecoder(src)
	obs := Observation{Raw: raw}

	d.accept("METAR", "SPECI")

	station, ok := parseStation(d.peek())
	if !ok {
		return Observation{}, d.fail("expected station identifier")
	}
	obs.Station = station
	d.advance(1)

	ts, ok := parseTimestamp(d.peek())
	if !ok {
		return Observation{}, d.fail("expected observation time")
	}
	obs.Time = ts
	d.advance(1)

	obs.Corrected = d.accept("COR")
	obs.Automated = d.accept("AUTO")

	wind, ok := parseWind(&d, true)
	if !ok {
		return Observation{}, d.fail("expected wind group")
	}
	obs.Wind = wind

	if !decodeMiddle(&d, &obs) {
		return Observation{}, d.fail("expected visibility, temperature and pressure groups")
	}

	decodeTrailing(&d, &obs)

	if !d.done() {
		return Observation{}, d.fail("unexpected group")
	}
	return obs, nil
}

// groupParser consumes one group of the order-independent section into obs.
type groupParser func(d *decoder, obs *Observation) bool

var middleGroups = []groupParser{
	func(d *decoder, obs *Observation) bool {
		sky, ok := parseSky(d)
		obs.Sky = sky
		return ok
	},
	func(d *decoder, obs *Observation) bool {
		t, ok := parseTemperature(d.peek())
		if ok {
			obs.Temperature = t
			d.advance(1)
		}
		return ok
	},
	func(d *decoder, obs *Observation) bool {
		p, ok := parsePressure(d)
		obs.Pressure = p
		return ok
	},
}

var middleOrders = permutations(len(middleGroups))

// decodeMiddle tries every ordering of middleGroups from the current
// position and commits the first one in which all groups match back to back.
func decodeMiddle(d *decoder, obs *Observation) bool {
	for _, order := range middleOrders {
		trial := *d
		candidate := *obs
		matched := true
		for _, i := range order {
			if !middleGroups[i](&trial, &candidate) {
				matched = false
				break
			}
		}
		if matched {
			*d = trial
			*obs = candidate
			return true
		}
	}
	return false
}

// permutations lists every ordering of 0..n-1, identity first.
func permutations(n int) [][]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			out = append(out, slices.Clone(idx))
			return
		}
		for i := k; i < n; i++ {
			idx[k], idx[i] = idx[i], idx[k]
			walk(k + 1)
			idx[k], idx[i] = idx[i], idx[k]
		}
	}
	walk(0)
	return out
}

// decodeTrailing consumes the optional groups that follow the pressure
// section, in report order. Each step is greedy and leaves the decoder
// untouched when its group is missing.
func decodeTrailing(d *decoder, obs *Observation) {
	for {
		text, ok := strings.CutPrefix(d.peek(), "RE")
		if !ok {
			break
		}
		w, ok := parsePresentWeather(text)
		if !ok {
			break
		}
		obs.RecentWeather = append(obs.RecentWeather, w)
		d.advance(1)
	}

	obs.WindShear = parseWindShear(d)

	if s, ok := parseSeaState(d.peek()); ok {
		obs.SeaState = &s
		d.advance(1)
	}

	for {
		rs, ok := parseRunwayState(d.peek())
		if !ok {
			break
		}
		obs.RunwayStates = append(obs.RunwayStates, rs)
		d.advance(1)
	}

	obs.ColourState = parseColourState(d)

	obs.NoSignificantChange = d.accept("NOSIG")

	for {
		t, ok := parseTrend(d)
		if !ok {
			break
		}
		obs.Trends = append(obs.Trends, t)
	}

	if d.peek() == "RMK" {
		at := d.toks[d.pos].offset + len("RMK")
		text := strings.TrimSpace(d.src[at:])
		if text == "" {
			obs.Remarks = Unknown[string]()
		} else {
			obs.Remarks = Value(text)
		}
		d.pos = len(d.toks)
	}
}
