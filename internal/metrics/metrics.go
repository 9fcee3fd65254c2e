package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	registrations prometheus.Counter
	proofs        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "daftaren_registrations_total",
				Help: "Committed registrations",
			},
		),
		proofs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daftaren_proofs_total",
				Help: "Accepted payment proofs by review delivery result",
			},
			[]string{"delivery"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daftaren_decisions_total",
				Help: "Admin decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(m.registrations, m.proofs, m.decisions)
	return m
}

func (m *Metrics) RegistrationCommitted() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) ProofSubmitted(delivery string) {
	if m == nil {
		return
	}
	m.proofs.WithLabelValues(delivery).Inc()
}

func (m *Metrics) Decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
