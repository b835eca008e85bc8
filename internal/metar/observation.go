package metar

import "slices"

// Observation is one decoded report line.
type Observation struct {
	Station   string
	Time      Timestamp
	Corrected bool
	Automated bool

	Wind        Wind
	Sky         SkyState
	Temperature Temperature
	Pressure    Pressure

	RecentWeather []PresentWeather
	// WindShear lists runway idents reported with wind shear; "ALL" for every runway.
	WindShear           []string
	SeaState            *SeaState
	RunwayStates        []RunwayState
	ColourState         *ColourState
	NoSignificantChange bool
	Trends              []Trend
	Remarks             Field[string]

	// Raw is the input line as received.
	Raw string
}

// Trend returns the first trend block of the given kind.
func (o Observation) Trend(kind TrendKind) (Trend, bool) {
	i := slices.IndexFunc(o.Trends, func(t Trend) bool { return t.Kind == kind })
	if i < 0 {
		return Trend{}, false
	}
	return o.Trends[i], true
}

// Timestamp is the day-of-month and UTC time of observation.
type Timestamp struct {
	Day    int
	Hour   int
	Minute int
}

// SpeedUnit is the unit of a wind group.
type SpeedUnit uint8

const (
	Knots SpeedUnit = iota
	MetresPerSecond
)

const knotsPerMetrePerSecond = 1.943844

func (u SpeedUnit) String() string {
	if u == MetresPerSecond {
		return "MPS"
	}
	return "KT"
}

// Wind is the surface wind group. Direction is absent for VRB winds and
// undefined for "///".
type Wind struct {
	Direction Field[int]
	Variable  bool
	Speed     Field[int]
	Gust      Field[int]
	Unit      SpeedUnit
	Arc       *Arc
}

// MaxSpeed returns the strongest reported speed in knots, using the gust
// when one is given. It reports false when the speed itself is unknown.
func (w Wind) MaxSpeed() (float64, bool) {
	speed, ok := w.Speed.Get()
	if !ok {
		return 0, false
	}
	if gust, ok := w.Gust.Get(); ok && gust > speed {
		speed = gust
	}
	if w.Unit == MetresPerSecond {
		return float64(speed) * knotsPerMetrePerSecond, true
	}
	return float64(speed), true
}

// Arc is the dddVddd variable-direction group. The arc runs clockwise from
// From to To and may wrap through north.
type Arc struct {
	From Field[int]
	To   Field[int]
}

// Bounds returns both ends when they are reported.
func (a Arc) Bounds() (from, to int, ok bool) {
	f, okFrom := a.From.Get()
	t, okTo := a.To.Get()
	return f, t, okFrom && okTo
}

// SkyState is the visibility, weather and cloud section. CAVOK leaves every
// other field at its zero value.
type SkyState struct {
	CAVOK              bool
	Visibility         Visibility
	MinimumVisibility  *DirectionalVisibility
	Weather            []PresentWeather
	RVR                []RVR
	Clouds             []Cloud
	NoCloud            NoCloud
	VerticalVisibility Field[int]
}

// Bound qualifies a value reported with an M (below) or P (above) prefix.
type Bound uint8

const (
	Exact Bound = iota
	Below
	Above
)

// Visibility is either metric (Metres, "////" undefined) or statute miles.
type Visibility struct {
	Metres                 Field[int]
	Miles                  *StatuteMiles
	NoDirectionalVariation bool
}

const metresPerStatuteMile = 1609.344

// InMetres converts the prevailing visibility to metres.
func (v Visibility) InMetres() Field[float64] {
	if v.Miles != nil {
		return Value(v.Miles.Value() * metresPerStatuteMile)
	}
	switch m, ok := v.Metres.Get(); {
	case ok:
		return Value(float64(m))
	case v.Metres.IsUndefined():
		return Unknown[float64]()
	default:
		return Field[float64]{}
	}
}

// StatuteMiles is a visibility such as "1 1/2SM" or "P6SM".
type StatuteMiles struct {
	Bound       Bound
	Whole       int
	Numerator   int
	Denominator int
}

func (m StatuteMiles) Value() float64 {
	v := float64(m.Whole)
	if m.Denominator > 0 {
		v += float64(m.Numerator) / float64(m.Denominator)
	}
	return v
}

// DirectionalVisibility is a minimum visibility group such as "1500SW".
type DirectionalVisibility struct {
	Metres    int
	Direction string
}

// Intensity of a present weather group.
type Intensity uint8

const (
	Moderate Intensity = iota
	Light
	Heavy
	InVicinity
)

// Descriptor qualifies the phenomena of a weather group.
type Descriptor string

const (
	Shallow      Descriptor = "MI"
	Patches      Descriptor = "BC"
	Partial      Descriptor = "PR"
	LowDrifting  Descriptor = "DR"
	Blowing      Descriptor = "BL"
	Showers      Descriptor = "SH"
	Thunderstorm Descriptor = "TS"
	Freezing     Descriptor = "FZ"
)

var descriptors = []Descriptor{Shallow, Patches, Partial, LowDrifting, Blowing, Showers, Thunderstorm, Freezing}

// Phenomenon is a two letter weather code.
type Phenomenon string

const (
	Drizzle       Phenomenon = "DZ"
	Rain          Phenomenon = "RA"
	Snow          Phenomenon = "SN"
	SnowGrains    Phenomenon = "SG"
	IceCrystals   Phenomenon = "IC"
	IcePellets    Phenomenon = "PL"
	Hail          Phenomenon = "GR"
	SmallHail     Phenomenon = "GS"
	UnknownPrecip Phenomenon = "UP"
	Mist          Phenomenon = "BR"
	Fog           Phenomenon = "FG"
	Smoke         Phenomenon = "FU"
	VolcanicAsh   Phenomenon = "VA"
	Dust          Phenomenon = "DU"
	Sand          Phenomenon = "SA"
	Haze          Phenomenon = "HZ"
	Spray         Phenomenon = "PY"
	DustWhirls    Phenomenon = "PO"
	Squalls       Phenomenon = "SQ"
	FunnelCloud   Phenomenon = "FC"
	Sandstorm     Phenomenon = "SS"
	Duststorm     Phenomenon = "DS"
)

var phenomena = []Phenomenon{
	Drizzle, Rain, Snow, SnowGrains, IceCrystals, IcePellets, Hail, SmallHail, UnknownPrecip,
	Mist, Fog, Smoke, VolcanicAsh, Dust, Sand, Haze, Spray, DustWhirls, Squalls, FunnelCloud,
	Sandstorm, Duststorm,
}

// PresentWeather is one weather group, e.g. "-SHSN" or "VCFG". A "//"
// group decodes to a single undefined phenomenon.
type PresentWeather struct {
	Intensity  Intensity
	Descriptor Descriptor
	Phenomena  []Field[Phenomenon]
}

// Has reports whether p is among the group's phenomena.
func (w PresentWeather) Has(p Phenomenon) bool {
	return slices.ContainsFunc(w.Phenomena, func(f Field[Phenomenon]) bool {
		v, ok := f.Get()
		return ok && v == p
	})
}

func (w PresentWeather) String() string {
	s := ""
	switch w.Intensity {
	case Light:
		s = "-"
	case Heavy:
		s = "+"
	case InVicinity:
		s = "VC"
	}
	s += string(w.Descriptor)
	for _, p := range w.Phenomena {
		s += p.String()
	}
	return s
}

// RVRTrend is the tendency suffix of an RVR group.
type RVRTrend string

const (
	Upward   RVRTrend = "U"
	Downward RVRTrend = "D"
	NoChange RVRTrend = "N"
)

// RVR is a runway visual range group.
type RVR struct {
	Runway string
	Bound  Bound
	Metres Field[int]
	Trend  RVRTrend
}

// Coverage is the amount of sky covered by a cloud layer.
type Coverage string

const (
	Few       Coverage = "FEW"
	Scattered Coverage = "SCT"
	Broken    Coverage = "BKN"
	Overcast  Coverage = "OVC"
)

// Cloud is one cloud layer. Height is in hundreds of feet.
type Cloud struct {
	Coverage Field[Coverage]
	Height   Field[int]
	Type     Field[string]
}

// NoCloud is a group stating that no cloud layers follow.
type NoCloud string

const (
	NoCloudDetected    NoCloud = "NCD"
	NoSignificantCloud NoCloud = "NSC"
	Clear              NoCloud = "CLR"
	SkyClear           NoCloud = "SKC"
)

// Temperature holds air temperature and dew point in whole degrees Celsius.
type Temperature struct {
	Air      Field[int]
	DewPoint Field[int]
}

// Pressure holds QNH in hectopascal and the altimeter setting in hundredths
// of an inch of mercury. At least one is reported.
type Pressure struct {
	QNH       Field[int]
	Altimeter Field[int]
}

// SeaSurfaceKind says whether a sea group reports a state code or a wave height.
type SeaSurfaceKind uint8

const (
	StateOfSea SeaSurfaceKind = iota
	WaveHeight
)

// SeaSurface is the S or H half of a sea group. WaveHeight is in decimetres.
type SeaSurface struct {
	Kind  SeaSurfaceKind
	Value Field[int]
}

// SeaState is a "W12/S3" or "W12/H15" group.
type SeaState struct {
	Temperature Field[int]
	Surface     Field[SeaSurface]
}

// RunwayState is a runway surface condition group, kept as its coded form.
type RunwayState struct {
	Runway string
	Code   string
}

// Colour is a military aerodrome colour state.
type Colour string

const (
	Blue   Colour = "BLU"
	White  Colour = "WHT"
	Green  Colour = "GRN"
	Yellow Colour = "YLO"
	Amber  Colour = "AMB"
	Red    Colour = "RED"
	Black  Colour = "BLACK"
)

var colours = []Colour{Black, Blue, White, Green, Yellow, Amber, Red}

// ColourState is the set of colour codes with an optional "+" or "-" tendency.
type ColourState struct {
	Colours  []Colour
	Tendency string
}

// TrendKind is BECMG or TEMPO.
type TrendKind string

const (
	Becoming  TrendKind = "BECMG"
	Temporary TrendKind = "TEMPO"
)

// TrendTime is an FM, TL or AT time group inside a trend.
type TrendTime struct {
	Qualifier string
	Hour      int
	Minute    int
}

// Trend is a partial restatement of the observation expected to occur.
type Trend struct {
	Kind                 TrendKind
	Times                []TrendTime
	Wind                 *Wind
	CAVOK                bool
	Visibility           *Visibility
	Weather              []PresentWeather
	NoSignificantWeather bool
	Clouds               []Cloud
	NoCloud              NoCloud
	VerticalVisibility   Field[int]
}
