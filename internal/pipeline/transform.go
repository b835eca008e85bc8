package pipeline

import (
	"errors"
	"maps"
	"slices"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/atis"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/policy"
)

// attachObservations decodes every line and attaches it to its airport.
// Reports for stations outside airports are decoded but dropped. A line
// that fails to decode is logged and skipped.
func (p *Pipeline) attachObservations(airports domain.Airports, lines []string) (decoded, failed int) {
	for _, line := range lines {
		obs, err := metar.Decode(line)
		if err != nil {
			failed++
			p.metrics.DecodeFailures.Inc()
			attrs := []any{"line", line, "error", err}
			var decErr *metar.DecodeError
			if errors.As(err, &decErr) {
				attrs = append(attrs, "remainder", decErr.Remainder)
			}
			p.logger.Warn("decode failed, skipping report", attrs...)
			continue
		}
		decoded++
		p.metrics.ReportsDecoded.Inc()

		a, ok := airports[obs.Station]
		if !ok {
			continue
		}
		a.AttachObservation(obs)
	}
	return decoded, failed
}

// applyBulletins merges the runways named in each bulletin into the
// OperationalBulletin selection of its airport. Idents the airport does not
// have are dropped.
func (p *Pipeline) applyBulletins(airports domain.Airports, bulletins []atis.Bulletin) {
	for _, b := range bulletins {
		a, ok := airports[b.Station()]
		if !ok {
			continue
		}
		sel := p.extractor.Extract(b.Text())
		applied := false
		for _, e := range sel.Entries() {
			if !a.HasRunwayIdent(e.Ident) {
				p.logger.Warn("bulletin names unknown runway",
					"icao", a.ICAO, "callsign", b.Callsign, "runway", e.Ident)
				continue
			}
			a.InUse.Merge(domain.OperationalBulletin, e.Ident, e.Usage)
			applied = true
		}
		if !applied {
			p.logger.Debug("bulletin names no runway in use", "icao", a.ICAO, "callsign", b.Callsign)
			continue
		}
		p.metrics.BulletinsApplied.Inc()
	}
}

// decide runs the policy of every airport. Policy errors are logged and
// returned; the airport keeps whatever other sources it has.
func (p *Pipeline) decide(airports domain.Airports) []error {
	var errs []error
	for _, a := range airports.Sorted() {
		d, err := p.registry.Decide(a)
		if err != nil {
			p.metrics.PolicyErrors.Inc()
			p.logger.Error("runway policy failed", "icao", a.ICAO, "error", err)
			errs = append(errs, err)
			continue
		}
		if d.IsEmpty() {
			continue
		}
		a.InUse.Set(d.Source, d.Selection)
	}
	return errs
}

// applyDefaults installs the configured default runway of each airport as
// its ConfiguredFallback unless a policy already set one.
func (p *Pipeline) applyDefaults(airports domain.Airports) {
	for _, icao := range slices.Sorted(maps.Keys(p.defaultRunways)) {
		a, ok := airports[icao]
		if !ok {
			continue
		}
		number := p.defaultRunways[icao]
		sel, ok := policy.DefaultSelection(a, number)
		if !ok {
			p.logger.Warn("default runway not found", "icao", icao, "runway", number)
			continue
		}
		a.InUse.SetIfAbsent(domain.ConfiguredFallback, sel)
	}
}
