// Package vatsim fetches METAR reports and ATIS bulletins from the VATSIM
// network data feeds.
package vatsim

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/atis"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/config"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/observability"
)

const (
	feedMETAR = "metar"
	feedATIS  = "atis"

	// maxBodySize caps a single feed response.
	maxBodySize = 16 << 20
)

// Client fetches the network feeds. Each request is tried up to attempts
// times and the first error is returned when all fail.
type Client struct {
	httpClient *http.Client
	metarURLs  []string
	atisURL    string
	attempts   int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client from the fetch settings in cfg.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		metarURLs: cfg.MetarURLs,
		atisURL:   cfg.ATISURL,
		attempts:  cfg.FetchAttempts,
		metrics:   metrics,
		logger:    logger,
	}
}

// FetchReports downloads every METAR feed concurrently and returns the
// non-empty lines in feed order.
func (c *Client) FetchReports(ctx context.Context) ([]string, error) {
	pages := make([][]string, len(c.metarURLs))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range c.metarURLs {
		g.Go(func() error {
			body, err := c.get(ctx, feedMETAR, u)
			if err != nil {
				return err
			}
			pages[i] = splitLines(body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var lines []string
	for _, p := range pages {
		lines = append(lines, p...)
	}
	return lines, nil
}

func splitLines(body []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// FetchBulletins downloads the network data feed and returns its ATIS
// bulletins. Bulletins without text are left out.
func (c *Client) FetchBulletins(ctx context.Context) ([]atis.Bulletin, error) {
	body, err := c.get(ctx, feedATIS, c.atisURL)
	if err != nil {
		return nil, err
	}

	var data networkData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode network data: %w", err)
	}

	bulletins := make([]atis.Bulletin, 0, len(data.ATIS))
	for _, a := range data.ATIS {
		if len(a.TextATIS) == 0 {
			continue
		}
		bulletins = append(bulletins, atis.Bulletin{Callsign: a.Callsign, Lines: a.TextATIS})
	}
	return bulletins, nil
}

func (c *Client) get(ctx context.Context, feed, url string) ([]byte, error) {
	var firstErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		start := time.Now()
		body, err := c.do(ctx, url)
		if err == nil {
			c.metrics.FetchAttempts.WithLabelValues(feed, "success").Inc()
			c.metrics.FetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
			return body, nil
		}
		c.metrics.FetchAttempts.WithLabelValues(feed, "error").Inc()
		c.logger.Warn("fetch failed", "feed", feed, "url", url, "attempt", attempt, "error", err)
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s feed: %w", feed, firstErr)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vatsim API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// VATSIM v3 data feed, limited to the fields used here.

type networkData struct {
	ATIS []atisEntry `json:"atis"`
}

type atisEntry struct {
	Callsign string   `json:"callsign"`
	TextATIS []string `json:"text_atis"`
}
