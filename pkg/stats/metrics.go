package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xpubd"

// Outcome labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailure  = "failure"
)

// Metrics holds the counters of the daemon in a dedicated registry, so that
// more instances can live in the same process.
type Metrics struct {
	registry    *prometheus.Registry
	logins      *prometheus.CounterVec
	derivations *prometheus.CounterVec
	templates   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Number of authentication attempts by result.",
		}, []string{"result"}),
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_total",
			Help:      "Number of address derivation requests by result.",
		}, []string{"result"}),
		templates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_total",
			Help:      "Number of transaction template operations by kind and result.",
		}, []string{"operation", "result"}),
	}
	registry.MustRegister(m.logins, m.derivations, m.templates)
	return m
}

// RegisterAccountsGauge exposes the number of registered accounts, as
// returned by count at every scrape.
func (m *Metrics) RegisterAccountsGauge(count func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "accounts",
		Help:      "Number of registered accounts.",
	}, count))
}

func (m *Metrics) ObserveLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDerivation(result string) {
	m.derivations.WithLabelValues(result).Inc()
}

// ObserveTemplate counts a template operation, either "create" or "finalize".
func (m *Metrics) ObserveTemplate(operation, result string) {
	m.templates.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
