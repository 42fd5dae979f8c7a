package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		transcriptMessages,
		submissionsRejected,
		uploadsTotal,
		jobsTotal,
		sessionsEvicted,
	)
}

var (
	transcriptMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_messages_total",
			Help: "Messages appended to session transcripts per role.",
		},
		[]string{"role"},
	)

	submissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_rejected_total",
			Help: "Rejected user actions per reason (pending/upload_pending/unsupported_format).",
		},
		[]string{"reason"},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Completed uploads per outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_total",
			Help: "Background jobs per kind (exchange/upload) and status (completed/failed/dropped).",
		},
		[]string{"kind", "status"},
	)

	sessionsEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Idle chat sessions dropped by the sweeper.",
		},
	)
)

func IncMessage(role string) {
	transcriptMessages.WithLabelValues(label(role)).Inc()
}

func IncRejected(reason string) {
	submissionsRejected.WithLabelValues(label(reason)).Inc()
}

func IncUpload(outcome string) {
	uploadsTotal.WithLabelValues(label(outcome)).Inc()
}

func IncJob(kind, status string) {
	jobsTotal.WithLabelValues(label(kind), label(status)).Inc()
}

func AddSessionsEvicted(n int) {
	if n <= 0 {
		return
	}
	sessionsEvicted.Add(float64(n))
}
