// Package metrics exposes scoring counters on a private Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Save outcomes
const (
	OutcomeSaved  = "saved"
	OutcomeFailed = "failed"
)

// Metrics holds the application collectors.
type Metrics struct {
	registry       *prometheus.Registry
	roundsScored   *prometheus.CounterVec
	boutsFinalized prometheus.Counter
	saves          *prometheus.CounterVec
	liveBouts      prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roundsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdscore_rounds_scored_total",
			Help: "Rounds scored, by input method (winner, pair, picker).",
		}, []string{"method"}),
		boutsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdscore_bouts_finalized_total",
			Help: "Bouts that reached the finalized state.",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdscore_saves_total",
			Help: "Scorecard save attempts by storage method and outcome.",
		}, []string{"method", "outcome"}),
		liveBouts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crowdscore_live_bouts",
			Help: "Bouts currently hosted by the server.",
		}),
	}
	m.registry.MustRegister(m.roundsScored, m.boutsFinalized, m.saves, m.liveBouts)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RoundScored counts one scored round.
func (m *Metrics) RoundScored(method string) {
	if m == nil {
		return
	}
	m.roundsScored.WithLabelValues(method).Inc()
}

// BoutFinalized counts one finalized bout.
func (m *Metrics) BoutFinalized() {
	if m == nil {
		return
	}
	m.boutsFinalized.Inc()
}

// Save counts one save attempt.
func (m *Metrics) Save(method, outcome string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.saves.WithLabelValues(method, outcome).Inc()
}

// SetLiveBouts sets the live bout gauge.
func (m *Metrics) SetLiveBouts(n int) {
	if m == nil {
		return
	}
	m.liveBouts.Set(float64(n))
}
