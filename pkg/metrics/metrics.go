package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the invoice studio
type Metrics struct {
	registry *prometheus.Registry

	RendersTotal     prometheus.Counter
	GateDenialsTotal *prometheus.CounterVec
	ExportsTotal     *prometheus.CounterVec
	Unlocked         prometheus.Gauge
}

// New creates and registers all collectors on registry. A nil registry gets
// a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		RendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoice_studio_renders_total",
			Help: "Number of full invoice recomputations",
		}),
		GateDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_studio_gate_denials_total",
			Help: "Edits refused by the feature gate",
		}, []string{"reason"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_studio_exports_total",
			Help: "Image exports and prints by outcome",
		}, []string{"kind", "status"}),
		Unlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "invoice_studio_unlocked",
			Help: "1 when the unlocked plan is active",
		}),
	}

	registry.MustRegister(m.RendersTotal, m.GateDenialsTotal, m.ExportsTotal, m.Unlocked)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveExport(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.ExportsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) SetUnlocked(unlocked bool) {
	if unlocked {
		m.Unlocked.Set(1)
		return
	}
	m.Unlocked.Set(0)
}
