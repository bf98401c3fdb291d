// Package metrics holds the prometheus collectors for gatepass.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Registrations   prometheus.Counter
	Transitions     *prometheus.CounterVec
	ActiveWorkers   prometheus.Gauge
	Calls           *prometheus.CounterVec
	VisitorFetches  *prometheus.CounterVec
	VisitorFetchDur prometheus.Histogram
	AuthFailures    prometheus.Counter
}

// New creates the collectors on a private registry so tests can build
// as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_househelp_registrations_total",
			Help: "Total number of domestic help workers registered",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_househelp_transitions_total",
			Help: "Total number of worker status transitions by target status",
		}, []string{"status"}),
		ActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatepass_househelp_active",
			Help: "Current number of workers checked in",
		}),
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_calls_total",
			Help: "Total number of call attempts by result",
		}, []string{"result"}),
		VisitorFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_visitor_fetches_total",
			Help: "Total number of visitor backend fetches by result",
		}, []string{"result"}),
		VisitorFetchDur: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_visitor_fetch_duration_seconds",
			Help:    "Time taken to fetch visitors from the backend",
			Buckets: prometheus.DefBuckets,
		}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_auth_failures_total",
			Help: "Total number of rejected API key requests",
		}),
	}
}

func (m *Metrics) IncrementRegistrations() {
	m.Registrations.Inc()
}

func (m *Metrics) IncrementTransitions(status string) {
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SetActiveWorkers(count int) {
	m.ActiveWorkers.Set(float64(count))
}

func (m *Metrics) IncrementCalls(result string) {
	m.Calls.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

// ObserveVisitorFetch records one backend fetch.
func (m *Metrics) ObserveVisitorFetch(start time.Time, err error) {
	m.VisitorFetchDur.Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.VisitorFetches.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
