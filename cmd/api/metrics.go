package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// apiMetrics counts API requests per route and status code.
type apiMetrics struct {
	registry *prometheus.Registry
	up       prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newAPIMetrics() *apiMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	m := &apiMetrics{
		registry: reg,
		up: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "sellwatch",
			Subsystem: "api",
			Name:      "up",
			Help:      "1 while the status API is serving.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sellwatch",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sellwatch",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.up.Set(1)
	return m
}

func (m *apiMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records the status code and latency of h under route.
func (m *apiMetrics) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rw, r)
		m.requests.WithLabelValues(route, strconv.Itoa(rw.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
