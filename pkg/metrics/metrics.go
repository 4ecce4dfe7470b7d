// Package metrics defines the engine's Prometheus collectors. They are
// registered by the metrics server and incremented from the shell components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EvaluationsTotal counts prediction evaluations by outcome.
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_evaluations_total",
			Help: "Total number of churn prediction evaluations",
		},
		[]string{"outcome"},
	)

	// DispatchesTotal counts alert dispatches by alert type and outcome.
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_dispatches_total",
			Help: "Total number of alert events dispatched",
		},
		[]string{"alert_type", "outcome"},
	)

	// ActionsTotal counts individual dispatched actions by name and outcome.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_actions_total",
			Help: "Total number of downstream actions executed by the dispatcher",
		},
		[]string{"action", "outcome"},
	)

	// NotificationsTotal counts emitted ecosystem notifications by kind.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_notifications_total",
			Help: "Total number of ecosystem notifications written",
		},
		[]string{"kind"},
	)
)

// Collectors returns every engine collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EvaluationsTotal,
		DispatchesTotal,
		ActionsTotal,
		NotificationsTotal,
	}
}
