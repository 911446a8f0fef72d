// Package metrics provides Prometheus metrics collection for the simulator.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the simulator.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Simulation metrics
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	SimulationMonths   prometheus.Histogram
	FeeSolvesTotal     *prometheus.CounterVec

	// Plan metrics
	PlanReloads      prometheus.Counter
	PlanReloadErrors prometheus.Counter
	PlanLastReload   prometheus.Gauge

	// Preset metrics
	PresetOps *prometheus.CounterVec
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		// Request metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cardsim",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cardsim",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		// Simulation metrics
		SimulationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "simulations_total",
				Help:      "Total number of simulation runs",
			},
			[]string{"mode", "status"},
		),
		SimulationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cardsim",
				Name:      "simulation_duration_seconds",
				Help:      "Simulation run duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"mode"},
		),
		SimulationMonths: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "cardsim",
				Name:      "simulation_horizon_months",
				Help:      "Horizon length of simulation runs in months",
				Buckets:   []float64{6, 12, 24, 36, 48, 60, 120},
			},
		),
		FeeSolvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "fee_solves_total",
				Help:      "Total number of B2B employee fee solves",
			},
			[]string{"target"},
		),

		// Plan metrics
		PlanReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "plan_reloads_total",
				Help:      "Total number of successful pricing plan reloads",
			},
		),
		PlanReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "plan_reload_errors_total",
				Help:      "Total number of pricing plan reload errors",
			},
		),
		PlanLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cardsim",
				Name:      "plan_last_reload_timestamp",
				Help:      "Unix timestamp of last successful pricing plan reload",
			},
		),

		// Preset metrics
		PresetOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardsim",
				Name:      "preset_operations_total",
				Help:      "Total number of preset store operations",
			},
			[]string{"op", "status"},
		),
	}
}

// dynamicPrefixes lists route prefixes whose final segment is caller-supplied.
var dynamicPrefixes = []string{
	"/api/v1/pricing/presets/",
	"/api/v1/pricing/tiers/",
	"/api/v1/simulation/sensitivity/",
	"/api/v1/simulation/export/",
}

// NormalizePath collapses caller-supplied path segments so request metrics
// keep a bounded label cardinality.
func NormalizePath(path string) string {
	for _, p := range dynamicPrefixes {
		if strings.HasPrefix(path, p) {
			return p + "{param}"
		}
	}
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}
