package lifecycle

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for lifecycle writes.
type Metrics struct {
	AlertsRaisedTotal *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	AssignmentsTotal  *prometheus.CounterVec
}

// NewMetrics registers and returns lifecycle metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AlertsRaisedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_alerts_raised_total",
			Help: "Alerts raised, by type and priority.",
		}, []string{"type", "priority"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_alert_transitions_total",
			Help: "Alert state transitions attempted, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		AssignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_assignment_ops_total",
			Help: "Assignment registry writes, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(
		m.AlertsRaisedTotal,
		m.TransitionsTotal,
		m.AssignmentsTotal,
	)

	return m
}
