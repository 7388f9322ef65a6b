package authorization

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) DecisionCounter(permission, result string) prometheus.Counter {
	return m.decisions.WithLabelValues(permission, result)
}
