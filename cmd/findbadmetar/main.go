// Command findbadmetar decodes every METAR on the network and keeps the lines
// the decoder rejects in a JSON file. Lines already in the file are tested
// again, so reports that decode after a fix drop out.
//
// Usage:
//
//	findbadmetar [--url https://metar.vatsim.net/*] [--out failed_metars.json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/adapter/vatsim"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/config"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/metar"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
)

func main() {
	url := flag.String("url", "https://metar.vatsim.net/*", "METAR feed to test")
	out := flag.StringP("out", "o", "failed_metars.json", "JSON file holding the failing lines")
	ignore := flag.StringSlice("ignore", []string{"EQYS"}, "stations to skip")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.MetarURLs = []string{*url}

	logger := observability.NewLogger(cfg)
	client := vatsim.NewClient(cfg, observability.NewMetrics(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines, err := client.FetchReports(ctx)
	if err != nil {
		logger.Error("fetch reports", "error", err)
		os.Exit(1)
	}

	stored, err := readFailures(*out)
	if err != nil {
		logger.Error("read failures", "path", *out, "error", err)
		os.Exit(1)
	}

	failed := findFailures(append(stored, lines...), *ignore)
	if err := writeFailures(*out, failed); err != nil {
		logger.Error("write failures", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("metar check complete",
		"tested", len(lines),
		"previously_failing", len(stored),
		"failing", len(failed),
		"path", *out,
	)
}

// findFailures returns the sorted, de-duplicated lines that do not decode.
// Blank lines and lines of ignored stations are skipped.
func findFailures(lines, ignore []string) []string {
	var failed []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if station, _, _ := strings.Cut(line, " "); slices.Contains(ignore, station) {
			continue
		}
		if _, err := metar.Decode(line); err != nil {
			failed = append(failed, line)
		}
	}
	slices.Sort(failed)
	return slices.Compact(failed)
}

func readFailures(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return lines, nil
}

func writeFailures(path string, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
