// Command runwayselector runs one refresh cycle for the ENOR sector: it reads
// the runways from the newest sector file, fetches METAR reports and ATIS
// bulletins, decides the runways in use and writes them to the .rwy file.
//
// Usage:
//
//	runwayselector [--sector-file ENOR.sct] [--rwy-file ENOR.rwy] [--settings settings.toml] [--html report.html]
//
// The exit code is 1 when the cycle fails and 2 when it completed but some
// airport could not be decided because of a policy error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	kafkaadapter "github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/adapter/kafka"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/adapter/vatsim"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/config"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/pipeline"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/policy"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/report"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/sectorfile"
)

func main() {
	os.Exit(run())
}

func run() int {
	sectorFile := flag.StringP("sector-file", "s", "", "sector file to read runways from (default: newest ENOR*.sct in the sector folder)")
	sectorFolder := flag.String("sector-folder", "", "folder searched for sector files")
	rwyFile := flag.StringP("rwy-file", "o", "", "runway file to write (default: the sector file with a .rwy extension)")
	settingsFile := flag.String("settings", "", "TOML settings file with ignore_airports and default_runways")
	htmlOut := flag.String("html", "", "also write the report as HTML to this file")
	noATIS := flag.Bool("no-atis", false, "ignore ATIS bulletins")
	quiet := flag.BoolP("quiet", "q", false, "do not print the report table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if err := applyFlags(cfg, *sectorFile, *sectorFolder, *rwyFile, *settingsFile, *noATIS); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if cfg.MetricsTextfile != "" {
		defer func() {
			if err := observability.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
				logger.Error("metrics textfile", "error", err)
			}
		}()
	}

	sct := cfg.SectorFile
	if sct == "" {
		sct, err = sectorfile.Discover(cfg.SectorFolders()...)
		if err != nil {
			logger.Error("no sector file", "folders", cfg.SectorFolders(), "error", err)
			return 1
		}
	}
	airports, err := sectorfile.Load(sct, cfg.Settings.IgnoreAirports)
	if err != nil {
		logger.Error("failed to load sector file", "path", sct, "error", err)
		return 1
	}
	logger.Info("sector file loaded", "path", sct, "airports", len(airports))

	rwy := cfg.RunwayFile
	if rwy == "" {
		rwy = sectorfile.RunwayFilePath(sct)
	}

	client := vatsim.NewClient(cfg, metrics, logger)
	opts := pipeline.Options{
		RunwayFile:     rwy,
		DefaultRunways: cfg.Settings.DefaultRunways,
	}
	if cfg.ATISEnabled {
		opts.Bulletins = client
	} else {
		logger.Info("atis bulletins disabled")
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts.Publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	registry := policy.NewRegistry(policy.Options{
		Location:       cfg.Location,
		DefaultRunways: cfg.Settings.DefaultRunways,
	})
	p := pipeline.New(client, registry, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, airports)
	if err != nil {
		logger.Error("refresh cycle failed", "error", err)
		return 1
	}

	groups := report.Build(res.Airports)
	if !*quiet {
		if err := report.WriteTable(os.Stdout, groups); err != nil {
			logger.Error("write report", "error", err)
		}
	}
	if *htmlOut != "" {
		if err := writeHTML(*htmlOut, groups); err != nil {
			logger.Error("write html report", "path", *htmlOut, "error", err)
			return 1
		}
	}

	if len(res.Errors) > 0 {
		return 2
	}
	return 0
}

// applyFlags lets command line flags override the environment.
func applyFlags(cfg *config.Config, sectorFile, sectorFolder, rwyFile, settingsFile string, noATIS bool) error {
	if sectorFile != "" {
		cfg.SectorFile = sectorFile
	}
	if sectorFolder != "" {
		cfg.SectorFolder = sectorFolder
	}
	if rwyFile != "" {
		cfg.RunwayFile = rwyFile
	}
	if noATIS {
		cfg.ATISEnabled = false
	}
	if settingsFile != "" {
		settings, err := config.LoadSettings(settingsFile)
		if err != nil {
			return err
		}
		cfg.SettingsFile = settingsFile
		cfg.Settings = settings
	}
	return nil
}

func writeHTML(path string, groups []report.Group) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, groups); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
