package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/atis"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/pipeline"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/policy"
)

// --- mocks ---

type mockReports struct {
	lines []string
	err   error
}

func (m *mockReports) FetchReports(context.Context) ([]string, error) {
	return m.lines, m.err
}

type mockBulletins struct {
	bulletins []atis.Bulletin
	err       error
}

func (m *mockBulletins) FetchBulletins(context.Context) ([]atis.Bulletin, error) {
	return m.bulletins, m.err
}

type mockPublisher struct {
	published []domain.Assignment
	at        time.Time
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, assignments []domain.Assignment, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, assignments...)
	m.at = at
	return nil
}

// --- fixtures ---

var cycleTime = time.Date(2024, time.February, 8, 9, 20, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runway(a string, ha int, b string, hb int) domain.Runway {
	return domain.NewRunway(domain.NewRunwayDirection(a, ha), domain.NewRunwayDirection(b, hb))
}

func testAirports(t *testing.T) domain.Airports {
	t.Helper()
	geometry := map[string][]domain.Runway{
		"ENGM": {runway("01L", 14, "19R", 194), runway("01R", 14, "19L", 194)},
		"ENMH": {runway("17", 170, "35", 350)},
		"ENBR": {runway("17", 173, "35", 353)},
		"ENVA": {runway("09", 94, "27", 274)},
		"ENHV": {runway("08", 80, "26", 260)},
		"ENXX": {runway("05", 50, "23", 230), runway("12", 120, "30", 300)},
	}
	airports := domain.Airports{}
	for icao, runways := range geometry {
		a := airports.Get(icao)
		for _, r := range runways {
			require.NoError(t, a.AddRunway(r))
		}
	}
	return airports
}

func testLines() []string {
	return []string{
		"ENGM 080920Z VRB03KT 9999 -SHSN OVC009 M09/M12 Q1024 NOSIG",
		"ENMH 220550Z AUTO 30009KT 250V330 9999 BKN028/// OVC049/// 07/02 Q1016",
		"ENXX 080920Z 18010KT 9999 FEW020 10/05 Q1010",
		"ESKS 080920Z 36005KT CAVOK 10/05 Q1010",
		"ENZZ 99999",
	}
}

func testBulletins() []atis.Bulletin {
	return []atis.Bulletin{
		{Callsign: "ENBR_ATIS", Lines: []string{"BERGEN INFORMATION K", "RUNWAY 17 IN USE", "TRANSITION LEVEL 70"}},
		{Callsign: "ENMH_ATIS", Lines: []string{"MEHAMN INFORMATION A", "RUNWAY 08 IN USE"}},
		{Callsign: "ESKS_ATIS", Lines: []string{"SCANDINAVIAN MOUNTAINS INFORMATION C", "RUNWAY 34 IN USE"}},
	}
}

func newPipeline(t *testing.T, reports pipeline.ReportSource, opts pipeline.Options) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(cycleTime)
	opts.Clock = clock
	registry := policy.NewRegistry(policy.Options{Clock: clock, Location: loc})
	metrics := observability.NewMetricsForTesting()
	return pipeline.New(reports, registry, opts, discardLogger(), metrics), metrics
}

func summarize(assignments []domain.Assignment) []string {
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.ICAO+" "+a.Source.String()+" "+a.Selection.String())
	}
	return out
}

// --- tests ---

func TestPipeline_Run_Cycle(t *testing.T) {
	rwy := filepath.Join(t.TempDir(), "ENOR.rwy")
	require.NoError(t, os.WriteFile(rwy, []byte("ACTIVE_AIRPORT:ENGM:1\nACTIVE_AIRPORT:ENGM:0\nACTIVE_RUNWAY:ENGM:19R:1\n"), 0o600))

	pub := &mockPublisher{}
	p, metrics := newPipeline(t, &mockReports{lines: testLines()}, pipeline.Options{
		Bulletins:      &mockBulletins{bulletins: testBulletins()},
		Publisher:      pub,
		RunwayFile:     rwy,
		DefaultRunways: map[string]int{"ENVA": 9, "ENHV": 4},
	})

	res, err := p.Run(context.Background(), testAirports(t))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Decoded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{
		"ENBR atis {17:both}",
		"ENGM default {01L:departing, 01R:arriving}",
		"ENMH metar {35:both}",
		"ENVA default {09:both}",
	}, summarize(res.Assignments))
	assert.Equal(t, []string{"ENHV", "ENXX"}, res.Unconfigured)

	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], policy.ErrUnsupportedAirport)

	data, err := os.ReadFile(rwy)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"ACTIVE_AIRPORT:ENGM:1",
		"ACTIVE_AIRPORT:ENGM:0",
		"ACTIVE_RUNWAY:ENBR:17:1",
		"ACTIVE_RUNWAY:ENBR:17:0",
		"ACTIVE_RUNWAY:ENGM:01L:1",
		"ACTIVE_RUNWAY:ENGM:01R:0",
		"ACTIVE_RUNWAY:ENMH:35:1",
		"ACTIVE_RUNWAY:ENMH:35:0",
		"ACTIVE_RUNWAY:ENVA:09:1",
		"ACTIVE_RUNWAY:ENVA:09:0",
	}, "\n")+"\n", string(data))

	assert.Equal(t, summarize(res.Assignments), summarize(pub.published))
	assert.Equal(t, cycleTime, pub.at.UTC())

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.ReportsDecoded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DecodeFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BulletinsApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PolicyErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Selections.WithLabelValues("default")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.UnconfiguredAirports))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.AssignmentsPublished))
	assert.Equal(t, float64(cycleTime.Unix()), testutil.ToFloat64(metrics.LastCycle))
}

func TestPipeline_Run_BulletinOutranksComputed(t *testing.T) {
	p, _ := newPipeline(t, &mockReports{lines: testLines()}, pipeline.Options{
		Bulletins: &mockBulletins{bulletins: []atis.Bulletin{
			{Callsign: "ENMH_ATIS", Lines: []string{"MEHAMN INFORMATION A", "RUNWAY 17 IN USE"}},
		}},
	})

	res, err := p.Run(context.Background(), testAirports(t))
	require.NoError(t, err)

	enmh := res.Airports["ENMH"]
	computed, ok := enmh.InUse.Get(domain.ComputedFromObservation)
	require.True(t, ok)
	assert.Equal(t, "{35:both}", computed.String())

	src, sel, ok := enmh.InUse.Effective()
	require.True(t, ok)
	assert.Equal(t, domain.OperationalBulletin, src)
	assert.Equal(t, "{17:both}", sel.String())
}

func TestPipeline_Run_MergesBulletinsOfOneStation(t *testing.T) {
	p, _ := newPipeline(t, &mockReports{}, pipeline.Options{
		Bulletins: &mockBulletins{bulletins: []atis.Bulletin{
			{Callsign: "ENGM_A_ATIS", Lines: []string{"OSLO GARDERMOEN ARRIVAL INFORMATION B", "RUNWAY 01R IN USE"}},
			{Callsign: "ENGM_D_ATIS", Lines: []string{"OSLO GARDERMOEN DEPARTURE INFORMATION F", "RUNWAY 01L IN USE"}},
		}},
	})

	res, err := p.Run(context.Background(), testAirports(t))
	require.NoError(t, err)
	assert.Contains(t, summarize(res.Assignments), "ENGM atis {01R:arriving, 01L:departing}")
}

func TestPipeline_Run_DefaultDoesNotReplacePolicyFallback(t *testing.T) {
	p, _ := newPipeline(t, &mockReports{lines: testLines()}, pipeline.Options{
		DefaultRunways: map[string]int{"ENGM": 19},
	})

	res, err := p.Run(context.Background(), testAirports(t))
	require.NoError(t, err)
	assert.Contains(t, summarize(res.Assignments), "ENGM default {01L:departing, 01R:arriving}")
}

func TestPipeline_Run_ReportFetchFails(t *testing.T) {
	pub := &mockPublisher{}
	p, _ := newPipeline(t, &mockReports{err: errors.New("connection refused")}, pipeline.Options{Publisher: pub})

	_, err := p.Run(context.Background(), testAirports(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch reports")
	assert.Empty(t, pub.published)
}

func TestPipeline_Run_BulletinFetchFailsContinues(t *testing.T) {
	p, _ := newPipeline(t, &mockReports{lines: testLines()}, pipeline.Options{
		Bulletins: &mockBulletins{err: errors.New("timeout")},
	})

	res, err := p.Run(context.Background(), testAirports(t))
	require.NoError(t, err)
	assert.Contains(t, res.Unconfigured, "ENBR")
	assert.Contains(t, summarize(res.Assignments), "ENMH metar {35:both}")
}

func TestPipeline_Run_PublishError(t *testing.T) {
	p, _ := newPipeline(t, &mockReports{lines: testLines()}, pipeline.Options{
		Publisher: &mockPublisher{err: errors.New("broker down")},
	})

	_, err := p.Run(context.Background(), testAirports(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
