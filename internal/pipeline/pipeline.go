package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/atis"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/policy"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/rwyfile"
)

// ReportSource returns raw METAR lines.
type ReportSource interface {
	FetchReports(ctx context.Context) ([]string, error)
}

// BulletinSource returns the ATIS bulletins currently on the network.
type BulletinSource interface {
	FetchBulletins(ctx context.Context) ([]atis.Bulletin, error)
}

// Publisher receives the final assignments of a cycle.
type Publisher interface {
	Publish(ctx context.Context, assignments []domain.Assignment, at time.Time) error
}

// Options holds the optional collaborators of a Pipeline.
type Options struct {
	// Bulletins is nil when ATIS extraction is disabled.
	Bulletins BulletinSource
	// Publisher is nil when publishing is disabled.
	Publisher Publisher
	// RunwayFile is the .rwy file rewritten at the end of the cycle. Empty
	// skips writing.
	RunwayFile     string
	DefaultRunways map[string]int
	Clock          clockwork.Clock
}

// Pipeline runs refresh cycles: fetch, decode, attach observations, apply
// bulletins, decide, apply fallbacks, then write the effective selections.
type Pipeline struct {
	reports   ReportSource
	bulletins BulletinSource
	publisher Publisher
	registry  *policy.Registry
	extractor *atis.Extractor

	runwayFile     string
	defaultRunways map[string]int

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline around the report source and policy registry.
func New(reports ReportSource, registry *policy.Registry, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		reports:        reports,
		bulletins:      opts.Bulletins,
		publisher:      opts.Publisher,
		registry:       registry,
		extractor:      atis.NewExtractor(),
		runwayFile:     opts.RunwayFile,
		defaultRunways: opts.DefaultRunways,
		clock:          opts.Clock,
		logger:         logger,
		metrics:        metrics,
	}
}

// Result summarizes one refresh cycle.
type Result struct {
	Airports     domain.Airports
	Assignments  []domain.Assignment
	Unconfigured []string

	Decoded int
	Failed  int
	// Errors holds the policy errors of airports that could not be decided.
	Errors []error

	Duration time.Duration
}

// Run executes one cycle over airports. The airports are mutated in place
// and must be freshly loaded for every cycle.
//
// A failed report fetch or runway file write aborts the cycle. Bulletin
// fetch errors only disable bulletins for this cycle.
func (p *Pipeline) Run(ctx context.Context, airports domain.Airports) (Result, error) {
	start := p.clock.Now()
	res := Result{Airports: airports}

	lines, bulletins, err := p.fetch(ctx)
	if err != nil {
		return res, err
	}

	res.Decoded, res.Failed = p.attachObservations(airports, lines)
	p.applyBulletins(airports, bulletins)
	res.Errors = p.decide(airports)
	p.applyDefaults(airports)

	res.Assignments, res.Unconfigured = airports.Assignments()
	for _, a := range res.Assignments {
		p.metrics.Selections.WithLabelValues(a.Source.String()).Inc()
	}
	p.metrics.UnconfiguredAirports.Set(float64(len(res.Unconfigured)))
	for _, icao := range res.Unconfigured {
		p.logger.Warn("no runway configuration", "icao", icao)
	}

	if p.runwayFile != "" {
		if err := rwyfile.Update(p.runwayFile, res.Assignments); err != nil {
			return res, err
		}
		p.logger.Info("runway file written", "path", p.runwayFile, "airports", len(res.Assignments))
	}

	if p.publisher != nil && len(res.Assignments) > 0 {
		if err := p.publisher.Publish(ctx, res.Assignments, p.clock.Now()); err != nil {
			return res, err
		}
		p.metrics.AssignmentsPublished.Add(float64(len(res.Assignments)))
	}

	res.Duration = p.clock.Since(start)
	p.metrics.CycleDuration.Observe(res.Duration.Seconds())
	p.metrics.LastCycle.Set(float64(p.clock.Now().Unix()))
	p.logger.Info("cycle complete",
		"decoded", res.Decoded,
		"failed", res.Failed,
		"assigned", len(res.Assignments),
		"unconfigured", len(res.Unconfigured),
		"policy_errors", len(res.Errors),
		"duration", res.Duration,
	)
	return res, nil
}

// fetch downloads reports and bulletins concurrently.
func (p *Pipeline) fetch(ctx context.Context) ([]string, []atis.Bulletin, error) {
	var (
		lines     []string
		bulletins []atis.Bulletin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = p.reports.FetchReports(gctx)
		if err != nil {
			return fmt.Errorf("fetch reports: %w", err)
		}
		return nil
	})
	if p.bulletins != nil {
		g.Go(func() error {
			var err error
			bulletins, err = p.bulletins.FetchBulletins(gctx)
			if err != nil {
				p.logger.Warn("bulletins unavailable, continuing without", "error", err)
				bulletins = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lines, bulletins, nil
}
