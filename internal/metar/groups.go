package metar

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	stationRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	timestampRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)

	// windRe matches "24012G25KT", "VRB03KT", "/////KT" and "05004MPS".
	windRe = regexp.MustCompile(`^(\d{3}|VRB|///)(\d{2,3}|//)(?:G(\d{2,3}|//))?(KT|MPS)$`)
	arcRe  = regexp.MustCompile(`^(\d{3}|///)V(\d{3}|///)$`)

	metricVisRe   = regexp.MustCompile(`^(\d{4}|////)(NDV)?$`)
	milesRe       = regexp.MustCompile(`^([MP])?(?:(\d{1,2})|(\d{1,2})/(\d{1,2}))SM$`)
	wholeMilesRe  = regexp.MustCompile(`^\d{1,2}$`)
	fractionSMRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})SM$`)
	minimumVisRe  = regexp.MustCompile(`^(\d{4})(N|NE|E|SE|S|SW|W|NW)$`)
	rvrRe         = regexp.MustCompile(`^R(\d{2}[LRC]?)/([MP])?(\d{4}|////)([UDN])?$`)
	cloudRe       = regexp.MustCompile(`^(FEW|SCT|BKN|OVC|///)(\d{3}|///)(CB|TCU|///)?$`)
	verticalVisRe = regexp.MustCompile(`^VV(\d{3}|///)$`)

	temperatureRe = regexp.MustCompile(`^(M?\d{1,2}|//)/(M?\d{1,2}|//)$`)
	qnhRe         = regexp.MustCompile(`^Q(\d{4}|////)(?:A(\d{4}|////))?$`)
	altimeterRe   = regexp.MustCompile(`^A(\d{4}|////)$`)

	windShearRwyRe = regexp.MustCompile(`^R(?:WY)?(\d{2}[LRC]?)$`)
	// seaStateRe matches "W12/S3", "WM01/H15", "W///S/" and "W22///".
	seaStateRe    = regexp.MustCompile(`^W(M?\d{1,2}|//)/(S[\d/]|H(?:\d{1,3}|///)|//)$`)
	runwayStateRe = regexp.MustCompile(`^R(\d{2}[LRC]?)?/([\d/]{6}|CLRD[\d/]{2}|SNOCLO)$`)
	trendTimeRe   = regexp.MustCompile(`^(FM|TL|AT)(\d{2})(\d{2})$`)
)

// numberField decodes a digit run, or a slash run as undefined.
func numberField(s string) Field[int] {
	if s == "" {
		return Field[int]{}
	}
	if strings.Trim(s, "/") == "" {
		return Unknown[int]()
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unknown[int]()
	}
	return Value(n)
}

// temperatureField decodes "M05" as -5 and "//" as undefined.
func temperatureField(s string) Field[int] {
	if neg, ok := strings.CutPrefix(s, "M"); ok {
		f := numberField(neg)
		if v, ok := f.Get(); ok {
			return Value(-v)
		}
		return f
	}
	return numberField(s)
}

func bound(s string) Bound {
	switch s {
	case "M":
		return Below
	case "P":
		return Above
	default:
		return Exact
	}
}

func parseStation(tok string) (string, bool) {
	return tok, stationRe.MatchString(tok)
}

func parseTimestamp(tok string) (Timestamp, bool) {
	m := timestampRe.FindStringSubmatch(tok)
	if m == nil {
		return Timestamp{}, false
	}
	day, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return Timestamp{}, false
	}
	return Timestamp{Day: day, Hour: hour, Minute: minute}, true
}

// parseWind reads the wind group and, when withArc is set, a following
// variable-direction group.
func parseWind(d *decoder, withArc bool) (Wind, bool) {
	m := windRe.FindStringSubmatch(d.peek())
	if m == nil {
		return Wind{}, false
	}
	w := Wind{Speed: numberField(m[2]), Gust: numberField(m[3])}
	if m[1] == "VRB" {
		w.Variable = true
	} else {
		w.Direction = numberField(m[1])
	}
	if m[4] == "MPS" {
		w.Unit = MetresPerSecond
	}
	d.advance(1)

	if withArc {
		if a := arcRe.FindStringSubmatch(d.peek()); a != nil {
			w.Arc = &Arc{From: numberField(a[1]), To: numberField(a[2])}
			d.advance(1)
		}
	}
	return w, true
}

func parseVisibility(d *decoder) (Visibility, bool) {
	tok := d.peek()
	if m := metricVisRe.FindStringSubmatch(tok); m != nil {
		d.advance(1)
		return Visibility{Metres: numberField(m[1]), NoDirectionalVariation: m[2] != ""}, true
	}
	if m := milesRe.FindStringSubmatch(tok); m != nil {
		miles := StatuteMiles{Bound: bound(m[1])}
		if m[2] != "" {
			miles.Whole, _ = strconv.Atoi(m[2])
		} else {
			miles.Numerator, _ = strconv.Atoi(m[3])
			miles.Denominator, _ = strconv.Atoi(m[4])
		}
		d.advance(1)
		return Visibility{Miles: &miles}, true
	}
	// "1 1/2SM" spans two groups.
	if wholeMilesRe.MatchString(tok) {
		if m := fractionSMRe.FindStringSubmatch(d.peekAt(1)); m != nil {
			miles := StatuteMiles{}
			miles.Whole, _ = strconv.Atoi(tok)
			miles.Numerator, _ = strconv.Atoi(m[1])
			miles.Denominator, _ = strconv.Atoi(m[2])
			d.advance(2)
			return Visibility{Miles: &miles}, true
		}
	}
	return Visibility{}, false
}

// parseSky reads CAVOK, or a visibility followed by any mix of RVR, weather,
// cloud and vertical visibility groups.
func parseSky(d *decoder) (SkyState, bool) {
	if d.accept("CAVOK") {
		return SkyState{CAVOK: true}, true
	}
	vis, ok := parseVisibility(d)
	if !ok {
		return SkyState{}, false
	}
	sky := SkyState{Visibility: vis}
	if m := minimumVisRe.FindStringSubmatch(d.peek()); m != nil {
		metres, _ := strconv.Atoi(m[1])
		sky.MinimumVisibility = &DirectionalVisibility{Metres: metres, Direction: m[2]}
		d.advance(1)
	}

	for !d.done() {
		tok := d.peek()
		if r, ok := parseRVR(tok); ok {
			sky.RVR = append(sky.RVR, r)
		} else if w, ok := parsePresentWeather(tok); ok {
			sky.Weather = append(sky.Weather, w)
		} else if c, ok := parseCloud(tok); ok {
			sky.Clouds = append(sky.Clouds, c)
		} else if nc, ok := parseNoCloud(tok); ok {
			sky.NoCloud = nc
		} else if vv, ok := parseVerticalVisibility(tok); ok {
			sky.VerticalVisibility = vv
		} else {
			break
		}
		d.advance(1)
	}
	return sky, true
}

func parseRVR(tok string) (RVR, bool) {
	m := rvrRe.FindStringSubmatch(tok)
	if m == nil {
		return RVR{}, false
	}
	return RVR{
		Runway: m[1],
		Bound:  bound(m[2]),
		Metres: numberField(m[3]),
		Trend:  RVRTrend(m[4]),
	}, true
}

// parsePresentWeather decodes "[-|+|VC][descriptor][phenomena...]". A group
// needs a descriptor or at least one phenomenon.
func parsePresentWeather(s string) (PresentWeather, bool) {
	if s == "//" {
		return PresentWeather{Phenomena: []Field[Phenomenon]{Unknown[Phenomenon]()}}, true
	}
	var w PresentWeather
	switch {
	case strings.HasPrefix(s, "-"):
		w.Intensity, s = Light, s[1:]
	case strings.HasPrefix(s, "+"):
		w.Intensity, s = Heavy, s[1:]
	case strings.HasPrefix(s, "VC"):
		w.Intensity, s = InVicinity, s[2:]
	}
	for _, desc := range descriptors {
		if rest, ok := strings.CutPrefix(s, string(desc)); ok {
			w.Descriptor, s = desc, rest
			break
		}
	}
	for s != "" {
		if len(s) < 2 || !isPhenomenon(s[:2]) {
			return PresentWeather{}, false
		}
		w.Phenomena = append(w.Phenomena, Value(Phenomenon(s[:2])))
		s = s[2:]
	}
	return w, w.Descriptor != "" || len(w.Phenomena) > 0
}

func isPhenomenon(code string) bool {
	return slices.Contains(phenomena, Phenomenon(code))
}

func parseCloud(tok string) (Cloud, bool) {
	m := cloudRe.FindStringSubmatch(tok)
	if m == nil {
		return Cloud{}, false
	}
	c := Cloud{Height: numberField(m[2])}
	if m[1] == "///" {
		c.Coverage = Unknown[Coverage]()
	} else {
		c.Coverage = Value(Coverage(m[1]))
	}
	switch m[3] {
	case "":
	case "///":
		c.Type = Unknown[string]()
	default:
		c.Type = Value(m[3])
	}
	return c, true
}

func parseNoCloud(tok string) (NoCloud, bool) {
	switch nc := NoCloud(tok); nc {
	case NoCloudDetected, NoSignificantCloud, Clear, SkyClear:
		return nc, true
	}
	return "", false
}

func parseVerticalVisibility(tok string) (Field[int], bool) {
	m := verticalVisRe.FindStringSubmatch(tok)
	if m == nil {
		return Field[int]{}, false
	}
	return numberField(m[1]), true
}

func parseTemperature(tok string) (Temperature, bool) {
	m := temperatureRe.FindStringSubmatch(tok)
	if m == nil {
		return Temperature{}, false
	}
	return Temperature{Air: temperatureField(m[1]), DewPoint: temperatureField(m[2])}, true
}

// parsePressure reads a Q and/or A group, joined ("Q1013A2991") or as two
// consecutive groups in either order.
func parsePressure(d *decoder) (Pressure, bool) {
	var p Pressure
	if m := qnhRe.FindStringSubmatch(d.peek()); m != nil {
		p.QNH = numberField(m[1])
		p.Altimeter = numberField(m[2])
		d.advance(1)
		if p.Altimeter.IsAbsent() {
			if a := altimeterRe.FindStringSubmatch(d.peek()); a != nil {
				p.Altimeter = numberField(a[1])
				d.advance(1)
			}
		}
		return p, true
	}
	if a := altimeterRe.FindStringSubmatch(d.peek()); a != nil {
		p.Altimeter = numberField(a[1])
		d.advance(1)
		if m := qnhRe.FindStringSubmatch(d.peek()); m != nil && m[2] == "" {
			p.QNH = numberField(m[1])
			d.advance(1)
		}
		return p, true
	}
	return Pressure{}, false
}

// parseWindShear reads "WS R19" and "WS ALL RWY" groups.
func parseWindShear(d *decoder) []string {
	var runways []string
	for d.peek() == "WS" {
		if d.peekAt(1) == "ALL" && d.peekAt(2) == "RWY" {
			runways = append(runways, "ALL")
			d.advance(3)
			continue
		}
		m := windShearRwyRe.FindStringSubmatch(d.peekAt(1))
		if m == nil {
			break
		}
		runways = append(runways, m[1])
		d.advance(2)
	}
	return runways
}

func parseSeaState(tok string) (SeaState, bool) {
	m := seaStateRe.FindStringSubmatch(tok)
	if m == nil {
		return SeaState{}, false
	}
	s := SeaState{Temperature: temperatureField(m[1])}
	switch surface := m[2]; {
	case surface == "//":
		s.Surface = Unknown[SeaSurface]()
	case surface[0] == 'S':
		s.Surface = Value(SeaSurface{Kind: StateOfSea, Value: numberField(surface[1:])})
	default:
		s.Surface = Value(SeaSurface{Kind: WaveHeight, Value: numberField(surface[1:])})
	}
	return s, true
}

func parseRunwayState(tok string) (RunwayState, bool) {
	if tok == "SNOCLO" {
		return RunwayState{Code: tok}, true
	}
	m := runwayStateRe.FindStringSubmatch(tok)
	if m == nil {
		return RunwayState{}, false
	}
	return RunwayState{Runway: m[1], Code: m[2]}, true
}

// parseColourState reads consecutive colour code groups such as "BLU",
// "BLACKGRN" or "WHT+".
func parseColourState(d *decoder) *ColourState {
	var cs ColourState
	for !d.done() {
		found, tendency, ok := splitColours(d.peek())
		if !ok {
			break
		}
		cs.Colours = append(cs.Colours, found...)
		if tendency != "" {
			cs.Tendency = tendency
		}
		d.advance(1)
	}
	if len(cs.Colours) == 0 {
		return nil
	}
	return &cs
}

func splitColours(s string) ([]Colour, string, bool) {
	tendency := ""
	if strings.HasSuffix(s, "+") || strings.HasSuffix(s, "-") {
		s, tendency = s[:len(s)-1], s[len(s)-1:]
	}
	var found []Colour
	for s != "" {
		matched := false
		for _, c := range colours {
			rest, ok := strings.CutPrefix(s, string(c))
			if !ok {
				continue
			}
			if c == Yellow {
				rest = strings.TrimLeft(rest, "12")
			}
			found, s, matched = append(found, c), rest, true
			break
		}
		if !matched {
			return nil, "", false
		}
	}
	return found, tendency, len(found) > 0
}

// parseTrend reads a BECMG or TEMPO block up to the next trend or remark.
func parseTrend(d *decoder) (Trend, bool) {
	kind := TrendKind(d.peek())
	if kind != Becoming && kind != Temporary {
		return Trend{}, false
	}
	d.advance(1)
	t := Trend{Kind: kind}

	for !d.done() {
		tok := d.peek()
		if m := trendTimeRe.FindStringSubmatch(tok); m != nil {
			hour, _ := strconv.Atoi(m[2])
			minute, _ := strconv.Atoi(m[3])
			t.Times = append(t.Times, TrendTime{Qualifier: m[1], Hour: hour, Minute: minute})
			d.advance(1)
			continue
		}
		if t.Wind == nil {
			if w, ok := parseWind(d, false); ok {
				t.Wind = &w
				continue
			}
		}
		if t.Visibility == nil {
			if v, ok := parseVisibility(d); ok {
				t.Visibility = &v
				continue
			}
		}
		switch {
		case tok == "CAVOK":
			t.CAVOK = true
		case tok == "NSW":
			t.NoSignificantWeather = true
		default:
			if w, ok := parsePresentWeather(tok); ok {
				t.Weather = append(t.Weather, w)
			} else if c, ok := parseCloud(tok); ok {
				t.Clouds = append(t.Clouds, c)
			} else if nc, ok := parseNoCloud(tok); ok {
				t.NoCloud = nc
			} else if vv, ok := parseVerticalVisibility(tok); ok {
				t.VerticalVisibility = vv
			} else {
				return t, true
			}
		}
		d.advance(1)
	}
	return t, true
}
