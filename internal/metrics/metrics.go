// Package metrics exposes tracker Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sellwatch"

// Check results recorded by ObserveCheck.
const (
	ResultAvailable = "available"
	ResultSold      = "sold"
	ResultChallenge = "challenge"
	ResultError     = "error"
)

// Metrics holds the tracker's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CollectAttempts *prometheus.CounterVec
	CollectFailures *prometheus.CounterVec
	BatchesStarted  *prometheus.CounterVec
	Checks          *prometheus.CounterVec
	CheckDuration   prometheus.Histogram
	ChecksInFlight  prometheus.Gauge
	SoldTotal       *prometheus.CounterVec
	Challenges      *prometheus.CounterVec
	Freshness       *prometheus.GaugeVec
	PassesTotal     *prometheus.CounterVec
}

// New registers the tracker metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CollectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collect_attempts_total",
			Help:      "Catalog collection attempts.",
		}, []string{"category"}),
		CollectFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collect_failures_total",
			Help:      "Collections that exhausted every attempt.",
		}, []string{"category"}),
		BatchesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_started_total",
			Help:      "Batches handed to the status poller.",
		}, []string{"category"}),
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Detail page checks by result.",
		}, []string{"category", "result"}),
		CheckDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Latency of a single detail page check.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		ChecksInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_in_flight",
			Help:      "Detail page checks currently running.",
		}),
		SoldTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sold_total",
			Help:      "Items observed transitioning to sold.",
		}, []string{"category"}),
		Challenges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Anti-bot challenge pages encountered.",
		}, []string{"category", "stage"}),
		Freshness: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_freshness",
			Help:      "Unseen front-page listings at the last probe.",
		}, []string{"category"}),
		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_passes_total",
			Help:      "Completed status polling passes.",
		}, []string{"category"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CollectAttempt(category string) {
	if m == nil {
		return
	}
	m.CollectAttempts.WithLabelValues(category).Inc()
}

func (m *Metrics) CollectFailed(category string) {
	if m == nil {
		return
	}
	m.CollectFailures.WithLabelValues(category).Inc()
}

func (m *Metrics) BatchStarted(category string) {
	if m == nil {
		return
	}
	m.BatchesStarted.WithLabelValues(category).Inc()
}

// CheckStarted marks a check in flight and returns a func that records its
// result and latency.
func (m *Metrics) CheckStarted(category string) func(result string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ChecksInFlight.Inc()
	return func(result string) {
		m.ChecksInFlight.Dec()
		m.CheckDuration.Observe(time.Since(start).Seconds())
		m.Checks.WithLabelValues(category, result).Inc()
	}
}

func (m *Metrics) Sold(category string) {
	if m == nil {
		return
	}
	m.SoldTotal.WithLabelValues(category).Inc()
}

func (m *Metrics) Challenge(category, stage string) {
	if m == nil {
		return
	}
	m.Challenges.WithLabelValues(category, stage).Inc()
}

func (m *Metrics) SetFreshness(category string, n int) {
	if m == nil {
		return
	}
	m.Freshness.WithLabelValues(category).Set(float64(n))
}

func (m *Metrics) PassDone(category string) {
	if m == nil {
		return
	}
	m.PassesTotal.WithLabelValues(category).Inc()
}
