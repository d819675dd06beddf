package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		WebhookEvents,
		WebhookDuration,
	)
}

var (
	// result: processed|failed|rejected
	// reason (non-processed only): bad_signature|bad_json|missing_secret|reconcile_error|method_not_allowed|unknown
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound webhook deliveries by result and bounded reason.",
		},
		[]string{"result", "reason"},
	)

	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of the webhook handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)
