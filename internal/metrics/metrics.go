// Package metrics holds Prometheus metrics for engine observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors exposed by the engine.
type Metrics struct {
	EventsTotal          prometheus.Counter     // Total render events ingested
	UnnecessaryTotal     prometheus.Counter     // Total renders flagged unnecessary
	ChainsDetectedTotal  prometheus.Counter     // Total render chains detected
	SuggestionsTotal     *prometheus.CounterVec // Total suggestions produced, by rule
	ThroughputDropsTotal prometheus.Counter     // Total throughput-drop incidents
	RenderRate           prometheus.Gauge       // Most recent events-per-second sample
	TrackedComponents    prometheus.Gauge       // Components currently tracked
}

// New creates and registers the engine metrics with the provided
// registerer. The registerer parameter allows flexible registration
// (global registry in production, a private registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderlens_events_total",
			Help: "Total number of render events ingested",
		}),
		UnnecessaryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderlens_unnecessary_renders_total",
			Help: "Total number of renders flagged as unnecessary",
		}),
		ChainsDetectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderlens_chains_detected_total",
			Help: "Total number of render chains detected",
		}),
		SuggestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "renderlens_suggestions_total",
			Help: "Total number of fix suggestions produced",
		}, []string{"rule"}),
		ThroughputDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderlens_throughput_drops_total",
			Help: "Total number of throughput-drop incidents",
		}),
		RenderRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "renderlens_render_rate",
			Help: "Most recent events-per-second throughput sample",
		}),
		TrackedComponents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "renderlens_tracked_components",
			Help: "Number of components currently tracked",
		}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.UnnecessaryTotal,
		m.ChainsDetectedTotal,
		m.SuggestionsTotal,
		m.ThroughputDropsTotal,
		m.RenderRate,
		m.TrackedComponents,
	)
	return m
}
