package observability

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) EntriesActiveForTest() prometheus.Gauge {
	return m.entriesActive
}
