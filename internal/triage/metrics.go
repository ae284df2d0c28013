package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the query engine.
type Metrics struct {
	DashboardDuration prometheus.Histogram
	DashboardCache    *prometheus.CounterVec
}

// NewMetrics registers and returns query-engine metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DashboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "carewatch_dashboard_build_duration_seconds",
			Help:    "Duration of live dashboard snapshot builds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~20s
		}),
		DashboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.DashboardDuration,
		m.DashboardCache,
	)

	return m
}
