// Package report summarizes a refresh cycle for the operator, grouped by
// where each airport's runway selection came from.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

const (
	noConfigLabel = "No runway config"
	noSelection   = "(no selection)"
)

// Group lists the airports whose effective selection came from one source.
type Group struct {
	Label    string
	Class    string
	Airports []Row
}

// Row is one airport in a group.
type Row struct {
	ICAO    string
	Runways string
	METAR   string
}

// Build groups the airports by effective source in precedence order. Airports
// with no selection at all come last.
func Build(airports domain.Airports) []Group {
	bySource := make(map[domain.Source][]Row)
	var unconfigured []Row

	for _, a := range airports.Sorted() {
		src, sel, ok := a.InUse.Effective()
		row := Row{ICAO: a.ICAO, Runways: noSelection, METAR: a.ICAO + " No METAR"}
		if a.Observation != nil {
			row.METAR = a.Observation.Raw
		}
		if !ok {
			unconfigured = append(unconfigured, row)
			continue
		}
		row.Runways = runwayText(sel)
		bySource[src] = append(bySource[src], row)
	}

	var groups []Group
	for _, src := range domain.Sources {
		if rows := bySource[src]; len(rows) > 0 {
			groups = append(groups, Group{Label: sourceLabel(src), Class: src.String(), Airports: rows})
		}
	}
	if len(unconfigured) > 0 {
		groups = append(groups, Group{Label: noConfigLabel, Class: "none", Airports: unconfigured})
	}
	return groups
}

func sourceLabel(src domain.Source) string {
	switch src {
	case domain.OperationalBulletin:
		return "ATIS"
	case domain.ComputedFromObservation:
		return "METAR"
	default:
		return "fallback"
	}
}

// runwayText renders a selection as "27 Arr + 09 Dep".
func runwayText(sel domain.Selection) string {
	parts := make([]string, 0, sel.Len())
	for _, e := range sel.Entries() {
		switch e.Usage {
		case domain.Arriving:
			parts = append(parts, e.Ident+" Arr")
		case domain.Departing:
			parts = append(parts, e.Ident+" Dep")
		default:
			parts = append(parts, e.Ident)
		}
	}
	return strings.Join(parts, " + ")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ADD8"))
)

// WriteTable renders the groups as a bordered text table, one row per group.
func WriteTable(w io.Writer, groups []Group) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		BorderRow(true).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Selection Source", "Number of Airports", "Airports and Runways", "METAR")

	for _, g := range groups {
		airports := make([]string, 0, len(g.Airports))
		metars := make([]string, 0, len(g.Airports))
		for _, r := range g.Airports {
			if r.Runways == noSelection {
				airports = append(airports, r.ICAO)
			} else {
				airports = append(airports, r.ICAO+": "+r.Runways)
			}
			metars = append(metars, r.METAR)
		}
		t.Row(g.Label, strconv.Itoa(len(g.Airports)), strings.Join(airports, "\n"), strings.Join(metars, "\n"))
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

//go:embed report.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("report").Parse(htmlSource))

// WriteHTML renders the groups as a standalone HTML page.
func WriteHTML(w io.Writer, groups []Group) error {
	if err := htmlTemplate.Execute(w, groups); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
