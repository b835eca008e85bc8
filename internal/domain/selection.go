package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Usage is how a runway end is used.
type Usage uint8

const (
	Arriving Usage = iota + 1
	Departing
	Both
)

func (u Usage) String() string {
	switch u {
	case Arriving:
		return "arriving"
	case Departing:
		return "departing"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Merge combines two usages of the same runway end. Both absorbs anything,
// arriving and departing become Both, equal usages are unchanged.
func (u Usage) Merge(other Usage) Usage {
	if u == other {
		return u
	}
	if u == 0 {
		return other
	}
	if other == 0 {
		return u
	}
	return Both
}

// Flags returns the directional flags written for the usage: 1 for
// departures, 0 for arrivals.
func (u Usage) Flags() []int {
	switch u {
	case Departing:
		return []int{1}
	case Arriving:
		return []int{0}
	case Both:
		return []int{1, 0}
	default:
		return nil
	}
}

// Source is where a runway selection came from. Lower values take precedence.
type Source uint8

const (
	OperationalBulletin Source = iota
	ComputedFromObservation
	ConfiguredFallback
)

// Sources lists every source in precedence order.
var Sources = []Source{OperationalBulletin, ComputedFromObservation, ConfiguredFallback}

func (s Source) String() string {
	switch s {
	case OperationalBulletin:
		return "atis"
	case ComputedFromObservation:
		return "metar"
	case ConfiguredFallback:
		return "default"
	default:
		return "unknown"
	}
}

// Selection maps runway idents to usages, keeping insertion order.
type Selection struct {
	idents []string
	usage  map[string]Usage
}

// NewSelection builds a selection from ident/usage pairs in order.
func NewSelection(entries ...Entry) Selection {
	var s Selection
	for _, e := range entries {
		s.Add(e.Ident, e.Usage)
	}
	return s
}

// Entry is one runway end of a selection.
type Entry struct {
	Ident string
	Usage Usage
}

// Add merges usage into the entry for ident.
func (s *Selection) Add(ident string, usage Usage) {
	if s.usage == nil {
		s.usage = make(map[string]Usage)
	}
	current, ok := s.usage[ident]
	if !ok {
		s.idents = append(s.idents, ident)
	}
	s.usage[ident] = current.Merge(usage)
}

// Usage returns the usage for ident.
func (s Selection) Usage(ident string) (Usage, bool) {
	u, ok := s.usage[ident]
	return u, ok
}

func (s Selection) Len() int { return len(s.idents) }

func (s Selection) IsEmpty() bool { return len(s.idents) == 0 }

// Entries returns the selection in insertion order.
func (s Selection) Entries() []Entry {
	out := make([]Entry, 0, len(s.idents))
	for _, id := range s.idents {
		out = append(out, Entry{Ident: id, Usage: s.usage[id]})
	}
	return out
}

// Sorted returns the entries ordered by ident.
func (s Selection) Sorted() []Entry {
	out := s.Entries()
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Ident, b.Ident) })
	return out
}

func (s Selection) clone() Selection {
	return Selection{idents: slices.Clone(s.idents), usage: maps.Clone(s.usage)}
}

// Merge adds every entry of other into s.
func (s *Selection) Merge(other Selection) {
	for _, e := range other.Entries() {
		s.Add(e.Ident, e.Usage)
	}
}

func (s Selection) String() string {
	parts := make([]string, 0, s.Len())
	for _, e := range s.Entries() {
		parts = append(parts, e.Ident+":"+e.Usage.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RunwaysInUse holds at most one selection per source. Empty selections are
// never stored.
type RunwaysInUse struct {
	bySource map[Source]Selection
}

// Set replaces the selection for src. An empty selection removes it.
func (r *RunwaysInUse) Set(src Source, sel Selection) {
	if sel.IsEmpty() {
		delete(r.bySource, src)
		return
	}
	if r.bySource == nil {
		r.bySource = make(map[Source]Selection)
	}
	r.bySource[src] = sel.clone()
}

// SetIfAbsent stores sel for src unless src already has a selection.
func (r *RunwaysInUse) SetIfAbsent(src Source, sel Selection) bool {
	if _, ok := r.bySource[src]; ok {
		return false
	}
	r.Set(src, sel)
	return !sel.IsEmpty()
}

// Merge adds one runway usage under src, combining with what is there.
func (r *RunwaysInUse) Merge(src Source, ident string, usage Usage) {
	sel := r.bySource[src]
	sel.Add(ident, usage)
	r.Set(src, sel)
}

// Get returns the selection stored for src.
func (r RunwaysInUse) Get(src Source) (Selection, bool) {
	sel, ok := r.bySource[src]
	return sel, ok
}

// Effective returns the selection of the highest-precedence source present.
// Sources are never blended.
func (r RunwaysInUse) Effective() (Source, Selection, bool) {
	for _, src := range Sources {
		if sel, ok := r.bySource[src]; ok {
			return src, sel, true
		}
	}
	return 0, Selection{}, false
}

// IsEmpty reports whether no source has a selection.
func (r RunwaysInUse) IsEmpty() bool { return len(r.bySource) == 0 }

// Assignment is the final runway usage for one airport.
type Assignment struct {
	ICAO      string
	Source    Source
	Selection Selection
}

// Records renders the assignment as ACTIVE_RUNWAY lines.
func (a Assignment) Records() []string {
	var out []string
	for _, e := range a.Selection.Entries() {
		for _, flag := range e.Usage.Flags() {
			out = append(out, "ACTIVE_RUNWAY:"+a.ICAO+":"+e.Ident+":"+strconv.Itoa(flag))
		}
	}
	return out
}
