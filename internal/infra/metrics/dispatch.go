package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		dispatchRequests,
		dispatchLatencyMs,
	)
}

var (
	dispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Outbound requests per endpoint and outcome (ok/http_error/network_error/timeout).",
		},
		[]string{"endpoint", "outcome"},
	)

	dispatchLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_latency_ms",
			Help:    "Outbound request latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"endpoint", "success"},
	)
)

// ObserveDispatch records one outbound call. endpoint should be a low-cardinality label
// such as "chat" or "solve", never a full URL.
func ObserveDispatch(endpoint, outcome string, elapsed time.Duration) {
	dispatchRequests.WithLabelValues(label(endpoint), label(outcome)).Inc()
	dispatchLatencyMs.WithLabelValues(label(endpoint), strconv.FormatBool(outcome == "ok")).
		Observe(float64(elapsed.Milliseconds()))
}
