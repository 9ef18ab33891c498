package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters for lead CRUD and dashboard traffic.
type LeadMetrics struct {
	operationsTotal *prometheus.CounterVec
	dashboardTotal  *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "leads",
			Name:      "operations_total",
			Help:      "Total lead operations by outcome",
		}, []string{"operation", "status"}),
		dashboardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "dashboard",
			Name:      "requests_total",
			Help:      "Total dashboard aggregations by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.dashboardTotal)
	return m
}

// ObserveOperation records one lead operation outcome, e.g. ("create", "ok").
func (m *LeadMetrics) ObserveOperation(operation, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveDashboard records one dashboard aggregation outcome.
func (m *LeadMetrics) ObserveDashboard(status string) {
	if m == nil {
		return
	}
	m.dashboardTotal.WithLabelValues(status).Inc()
}
