package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runway_selector"

// Metrics holds the Prometheus counters, histograms, and gauges for a refresh cycle.
type Metrics struct {
	ReportsDecoded prometheus.Counter
	DecodeFailures prometheus.Counter
	// BulletinsApplied counts ATIS bulletins that named at least one runway.
	BulletinsApplied prometheus.Counter
	PolicyErrors     prometheus.Counter

	Selections           *prometheus.CounterVec // labels: source={atis,metar,default}
	UnconfiguredAirports prometheus.Gauge

	// Fetch metrics.
	FetchAttempts *prometheus.CounterVec   // labels: feed={metar,atis}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: feed={metar,atis}

	AssignmentsPublished prometheus.Counter
	CycleDuration        prometheus.Histogram
	LastCycle            prometheus.Gauge
}

// NewMetrics creates and registers all cycle metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.Collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_decoded_total",
			Help:      "Total METAR reports decoded.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Total METAR reports that failed to decode.",
		}),
		BulletinsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulletins_applied_total",
			Help:      "Total ATIS bulletins that named a runway in use.",
		}),
		PolicyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_errors_total",
			Help:      "Total airports a runway policy could not handle.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Effective runway selections by source.",
		}, []string{"source"}),
		UnconfiguredAirports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unconfigured_airports",
			Help:      "Airports left without any runway selection in the last cycle.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Network fetch attempts by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a successful feed fetch in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		AssignmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_published_total",
			Help:      "Total runway assignments written to Kafka.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete refresh cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last completed refresh cycle.",
		}),
	}
}

// Collectors returns every metric, for registering with a custom registry.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsDecoded,
		m.DecodeFailures,
		m.BulletinsApplied,
		m.PolicyErrors,
		m.Selections,
		m.UnconfiguredAirports,
		m.FetchAttempts,
		m.FetchDuration,
		m.AssignmentsPublished,
		m.CycleDuration,
		m.LastCycle,
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
