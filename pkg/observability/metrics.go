package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthd/hearthd/pkg/domain"
)

// Metrics counts flow and entry lifecycle events.
type Metrics struct {
	flowsStarted  *prometheus.CounterVec
	flowsFinished *prometheus.CounterVec
	entryOps      *prometheus.CounterVec
	entriesActive prometheus.Gauge
}

// NewMetrics creates the metric set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flowsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearthd",
			Name:      "flows_started_total",
			Help:      "Setup flows started, by integration domain.",
		}, []string{"domain"}),
		flowsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearthd",
			Name:      "flows_finished_total",
			Help:      "Setup flows that reached a terminal result.",
		}, []string{"domain", "result"}),
		entryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearthd",
			Name:      "entry_operations_total",
			Help:      "Config entry mutations, by operation.",
		}, []string{"operation"}),
		entriesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hearthd",
			Name:      "entries_active",
			Help:      "Config entries currently registered.",
		}),
	}
	reg.MustRegister(m.flowsStarted, m.flowsFinished, m.entryOps, m.entriesActive)
	return m
}

// Notify implements ports.Notifier.
func (m *Metrics) Notify(ev domain.Event) {
	switch ev.Type {
	case domain.EventFlowStarted:
		m.flowsStarted.WithLabelValues(ev.Domain).Inc()
	case domain.EventFlowFinished:
		m.flowsFinished.WithLabelValues(ev.Domain, "create_entry").Inc()
	case domain.EventFlowAborted:
		m.flowsFinished.WithLabelValues(ev.Domain, "abort").Inc()
	case domain.EventEntryCreated:
		m.entryOps.WithLabelValues("create").Inc()
		m.entriesActive.Inc()
	case domain.EventEntryUpdated:
		m.entryOps.WithLabelValues("update").Inc()
	case domain.EventEntryRemoved:
		m.entryOps.WithLabelValues("remove").Inc()
		m.entriesActive.Dec()
	}
}
