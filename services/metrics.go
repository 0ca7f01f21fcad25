package services

import "github.com/prometheus/client_golang/prometheus"

var (
	notificationDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_total",
			Help: "Notification events dispatched, by event type and outcome.",
		},
		[]string{"event", "outcome"},
	)

	notificationPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_publish_failures_total",
			Help: "Notification events that could not be handed to the notifier.",
		},
		[]string{"event"},
	)

	approvalTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Submission state transitions, by section and resulting status.",
		},
		[]string{"section", "status"},
	)
)

// InitMetrics registers the service metrics in the default registry.
func InitMetrics() {
	prometheus.MustRegister(notificationDispatchTotal, notificationPublishFailures, approvalTransitionsTotal)
}
