//go:build smoke

package vatsim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
)

// These tests hit the live VATSIM feeds.
// Run with: go test -tags=smoke ./internal/adapter/vatsim/ -v -count=1

func smokeClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metarURLs:  []string{"https://metar.vatsim.net/EN"},
		atisURL:    "https://data.vatsim.net/v3/vatsim-data.json",
		attempts:   3,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_FetchReports(t *testing.T) {
	lines, err := smokeClient().FetchReports(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "EN"), "unexpected station in %q", l)
	}
}

func TestSmoke_FetchBulletins(t *testing.T) {
	bulletins, err := smokeClient().FetchBulletins(context.Background())
	require.NoError(t, err)
	for _, b := range bulletins {
		assert.NotEmpty(t, b.Callsign)
		assert.NotEmpty(t, b.Lines)
	}
}
