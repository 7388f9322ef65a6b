package authorization

import "github.com/prometheus/client_golang/prometheus"

const (
	resultAllow = "allow"
	resultDeny  = "deny"
	resultError = "error"
)

// Metrics counts authorization decisions by permission and result.
type Metrics struct {
	decisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_authorization_decisions_total",
				Help: "Authorization decisions by required permission and result.",
			},
			[]string{"permission", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.decisions)
	}
	return m
}

func (m *Metrics) observe(permission, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(permission, result).Inc()
}
