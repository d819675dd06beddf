package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(fanoutDispatchTotal)
}

var (
	// target: subscription|booking|transaction|notification|broadcast
	// outcome: ok|error
	fanoutDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_dispatch_total",
			Help: "Fan-out updates to dependent records by target and outcome.",
		},
		[]string{"target", "outcome"},
	)
)

func IncFanout(target string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fanoutDispatchTotal.WithLabelValues(norm(target), outcome).Inc()
}
